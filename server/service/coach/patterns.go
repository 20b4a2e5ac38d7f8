package coach

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stridecoach/stride/store"
)

// Streak trend values.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Churn risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Motivator tags.
const (
	MotivatorStreak             = "streak"
	MotivatorEnergyImproving    = "energy_improving"
	MotivatorConsistentTraining = "consistent_training"
	MotivatorClearGoal          = "clear_goal"
)

// goalPlaceholder is the onboarding default before the user states a
// real goal.
const goalPlaceholder = "Sin definir"

// PatternWindowDays is the default lookback window for pattern analysis.
const PatternWindowDays = 30

// Patterns holds the derived behavior statistics for one user over the
// analysis window. It is computed on demand and never persisted.
type Patterns struct {
	BestCheckInTime   string   `json:"best_checkin_time"` // morning, midday, afternoon, evening, unknown
	AverageSleep      float64  `json:"average_sleep"`
	AverageEnergy     float64  `json:"average_energy"`
	TrainingFrequency float64  `json:"training_frequency"` // percent
	MostCommonMood    string   `json:"most_common_mood"`
	StreakTrend       string   `json:"streak_trend"`
	RiskOfChurn       string   `json:"risk_of_churn"`
	Motivators        []string `json:"motivators"`
}

// AnalyzePatterns computes behavior statistics for a user. checkIns
// must be the analysis window ordered most recent first. Every field
// has a documented default on an empty window; this never fails.
func AnalyzePatterns(now time.Time, user *store.User, checkIns []*store.CheckIn) *Patterns {
	return &Patterns{
		BestCheckInTime:   detectBestCheckInTime(now.Location(), checkIns),
		AverageSleep:      averageOf(checkIns, func(c *store.CheckIn) int32 { return c.Sleep }),
		AverageEnergy:     averageOf(checkIns, func(c *store.CheckIn) int32 { return c.Energy }),
		TrainingFrequency: trainingFrequency(checkIns),
		MostCommonMood:    mostCommonMood(checkIns),
		StreakTrend:       streakTrend(user.CurrentStreak, user.LongestStreak),
		RiskOfChurn:       churnRisk(now, user, checkIns),
		Motivators:        identifyMotivators(checkIns, user),
	}
}

// detectBestCheckInTime buckets check-in hours into day parts and
// returns the busiest one. Fewer than 5 check-ins is not enough signal.
func detectBestCheckInTime(loc *time.Location, checkIns []*store.CheckIn) string {
	if len(checkIns) < 5 {
		return "unknown"
	}

	buckets := []struct {
		name     string
		from, to int // inclusive hour range
	}{
		{"morning", 6, 11},
		{"midday", 12, 14},
		{"afternoon", 15, 18},
		{"evening", 19, 22},
	}
	counts := make([]int, len(buckets))

	for _, checkIn := range checkIns {
		hour := time.Unix(checkIn.CreatedTs, 0).In(loc).Hour()
		for i, b := range buckets {
			if hour >= b.from && hour <= b.to {
				counts[i]++
				break
			}
		}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return buckets[best].name
}

func averageOf(checkIns []*store.CheckIn, field func(*store.CheckIn) int32) float64 {
	if len(checkIns) == 0 {
		return 0
	}
	var sum int64
	for _, checkIn := range checkIns {
		sum += int64(field(checkIn))
	}
	return round1(float64(sum) / float64(len(checkIns)))
}

func trainingFrequency(checkIns []*store.CheckIn) float64 {
	if len(checkIns) == 0 {
		return 0
	}
	trained := 0
	for _, checkIn := range checkIns {
		if checkIn.TrainedToday {
			trained++
		}
	}
	return round1(float64(trained) / float64(len(checkIns)) * 100)
}

// mostCommonMood returns the case-insensitive mood mode; ties go to the
// mood seen first.
func mostCommonMood(checkIns []*store.CheckIn) string {
	if len(checkIns) == 0 {
		return "neutral"
	}

	counts := map[string]int{}
	order := []string{}
	for _, checkIn := range checkIns {
		mood := strings.ToLower(checkIn.Mood)
		if _, seen := counts[mood]; !seen {
			order = append(order, mood)
		}
		counts[mood]++
	}

	best := order[0]
	for _, mood := range order[1:] {
		if counts[mood] > counts[best] {
			best = mood
		}
	}
	return best
}

func streakTrend(current, longest int32) string {
	if current == 0 {
		return TrendDeclining
	}
	if float64(current) >= float64(longest)*0.8 {
		return TrendImproving
	}
	if float64(current) >= float64(longest)*0.5 {
		return TrendStable
	}
	return TrendDeclining
}

// churnRisk sums three weighted risk factors: recency of the last
// check-in, current streak vs record, and check-in count over the last
// 7 window entries.
func churnRisk(now time.Time, user *store.User, checkIns []*store.CheckIn) string {
	total := 0

	days := DaysSinceLastCheckIn(now, user.LastCheckInTs)
	switch {
	case days < 0 || days >= 7: // never checked in counts as very stale
		total += 3
	case days >= 3:
		total += 2
	case days >= 1:
		total++
	}

	ratio := 1.0
	if user.LongestStreak > 0 {
		ratio = float64(user.CurrentStreak) / float64(user.LongestStreak)
	}
	switch {
	case ratio < 0.3:
		total += 2
	case ratio < 0.6:
		total++
	}

	recent := len(checkIns)
	if recent > 7 {
		recent = 7
	}
	switch {
	case recent < 3:
		total += 2
	case recent < 5:
		total++
	}

	switch {
	case total >= 5:
		return RiskHigh
	case total >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

func identifyMotivators(checkIns []*store.CheckIn, user *store.User) []string {
	motivators := []string{}

	if user.CurrentStreak >= 7 {
		motivators = append(motivators, MotivatorStreak)
	}

	if len(checkIns) >= 7 {
		recent := checkIns[:7]
		older := checkIns[7:]
		if len(older) > 7 {
			older = older[:7]
		}
		recentAvg := averageOf(recent, func(c *store.CheckIn) int32 { return c.Energy })
		olderAvg := averageOf(older, func(c *store.CheckIn) int32 { return c.Energy })
		if recentAvg > olderAvg+0.5 {
			motivators = append(motivators, MotivatorEnergyImproving)
		}
	}

	if trainingFrequency(checkIns) >= 70 {
		motivators = append(motivators, MotivatorConsistentTraining)
	}

	if user.Goal != "" && user.Goal != goalPlaceholder {
		motivators = append(motivators, MotivatorClearGoal)
	}

	return motivators
}

// Insights renders a human-readable summary of the patterns, used as
// context in LLM prompts and shown in the backoffice.
func (p *Patterns) Insights() string {
	insights := []string{}

	if p.AverageSleep > 0 && p.AverageSleep < 3 {
		insights = append(insights, fmt.Sprintf("Sueño promedio bajo (%.1f/5), priorizar descanso", p.AverageSleep))
	} else if p.AverageSleep >= 4 {
		insights = append(insights, fmt.Sprintf("Buena calidad de sueño (%.1f/5)", p.AverageSleep))
	}

	if p.AverageEnergy > 0 && p.AverageEnergy < 3 {
		insights = append(insights, fmt.Sprintf("Energía baja (%.1f/5), revisar nutrición y descanso", p.AverageEnergy))
	}

	if p.TrainingFrequency >= 70 {
		insights = append(insights, fmt.Sprintf("Excelente frecuencia de entrenamiento (%.1f%%)", p.TrainingFrequency))
	} else if p.TrainingFrequency > 0 && p.TrainingFrequency < 40 {
		insights = append(insights, fmt.Sprintf("Baja frecuencia de entrenamiento (%.1f%%), motivar", p.TrainingFrequency))
	}

	switch p.RiskOfChurn {
	case RiskHigh:
		insights = append(insights, "Alto riesgo de abandono, enviar reactivación urgente")
	case RiskMedium:
		insights = append(insights, "Riesgo medio de abandono, reforzar motivación")
	}

	switch p.StreakTrend {
	case TrendImproving:
		insights = append(insights, "Racha en crecimiento, felicitar y motivar a mantener")
	case TrendDeclining:
		insights = append(insights, "Racha en declive, reforzar compromiso")
	}

	return strings.Join(insights, "\n")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
