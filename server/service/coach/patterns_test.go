package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stridecoach/stride/store"
)

func checkInAt(ts time.Time, sleep, energy int32, mood string, trained bool) *store.CheckIn {
	return &store.CheckIn{
		Sleep:        sleep,
		Energy:       energy,
		Mood:         mood,
		TrainedToday: trained,
		CreatedTs:    ts.Unix(),
	}
}

func TestAnalyzePatternsEmptyWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	user := &store.User{CurrentStreak: 0, LongestStreak: 0}

	patterns := AnalyzePatterns(now, user, nil)

	assert.Equal(t, "unknown", patterns.BestCheckInTime)
	assert.Equal(t, 0.0, patterns.AverageSleep)
	assert.Equal(t, 0.0, patterns.AverageEnergy)
	assert.Equal(t, 0.0, patterns.TrainingFrequency)
	assert.Equal(t, "neutral", patterns.MostCommonMood)
	assert.Equal(t, TrendDeclining, patterns.StreakTrend)
	assert.Equal(t, RiskHigh, patterns.RiskOfChurn)
	assert.Empty(t, patterns.Motivators)
}

func TestBestCheckInTime(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	morning := func(daysAgo int) *store.CheckIn {
		return checkInAt(day(now, daysAgo, 8), 3, 3, "bien", false)
	}
	evening := func(daysAgo int) *store.CheckIn {
		return checkInAt(day(now, daysAgo, 20), 3, 3, "bien", false)
	}

	t.Run("needs five check-ins", func(t *testing.T) {
		checkIns := []*store.CheckIn{morning(0), morning(1), morning(2), morning(3)}
		assert.Equal(t, "unknown", detectBestCheckInTime(now.Location(), checkIns))
	})

	t.Run("busiest bucket wins", func(t *testing.T) {
		checkIns := []*store.CheckIn{
			morning(0), morning(1), morning(2), evening(3), evening(4), evening(5), evening(6),
		}
		assert.Equal(t, "evening", detectBestCheckInTime(now.Location(), checkIns))
	})

	t.Run("ties go to the earlier day part", func(t *testing.T) {
		checkIns := []*store.CheckIn{
			morning(0), morning(1), evening(2), evening(3), checkInAt(day(now, 4, 2), 3, 3, "bien", false),
		}
		assert.Equal(t, "morning", detectBestCheckInTime(now.Location(), checkIns))
	})
}

func TestAverages(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	checkIns := []*store.CheckIn{
		checkInAt(day(now, 0, 9), 4, 5, "bien", true),
		checkInAt(day(now, 1, 9), 3, 4, "bien", true),
		checkInAt(day(now, 2, 9), 3, 3, "cansado", false),
	}

	assert.Equal(t, 3.3, averageOf(checkIns, func(c *store.CheckIn) int32 { return c.Sleep }))
	assert.Equal(t, 4.0, averageOf(checkIns, func(c *store.CheckIn) int32 { return c.Energy }))
	assert.Equal(t, 66.7, trainingFrequency(checkIns))
}

func TestMostCommonMood(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	checkIns := []*store.CheckIn{
		checkInAt(day(now, 0, 9), 3, 3, "Bien", false),
		checkInAt(day(now, 1, 9), 3, 3, "cansado", false),
		checkInAt(day(now, 2, 9), 3, 3, "BIEN", false),
	}
	assert.Equal(t, "bien", mostCommonMood(checkIns))

	// First-encountered tie-break.
	tied := []*store.CheckIn{
		checkInAt(day(now, 0, 9), 3, 3, "cansado", false),
		checkInAt(day(now, 1, 9), 3, 3, "bien", false),
	}
	assert.Equal(t, "cansado", mostCommonMood(tied))
}

func TestStreakTrend(t *testing.T) {
	tests := []struct {
		current, longest int32
		expected         string
	}{
		{0, 10, TrendDeclining},
		{0, 0, TrendDeclining},
		{8, 10, TrendImproving},
		{10, 10, TrendImproving},
		{5, 10, TrendStable},
		{4, 10, TrendDeclining},
		{1, 1, TrendImproving},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, streakTrend(tt.current, tt.longest),
			"current=%d longest=%d", tt.current, tt.longest)
	}
}

func TestChurnRiskMonotoneInRecency(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Fixed streak profile and enough recent check-ins so that only the
	// recency factor moves.
	checkIns := []*store.CheckIn{
		checkInAt(day(now, 0, 9), 3, 3, "bien", false),
		checkInAt(day(now, 1, 9), 3, 3, "bien", false),
		checkInAt(day(now, 2, 9), 3, 3, "bien", false),
		checkInAt(day(now, 3, 9), 3, 3, "bien", false),
		checkInAt(day(now, 4, 9), 3, 3, "bien", false),
	}

	rank := map[string]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}
	previous := -1
	for daysAgo := 0; daysAgo <= 10; daysAgo++ {
		last := day(now, daysAgo, 9).Unix()
		user := &store.User{CurrentStreak: 10, LongestStreak: 10, LastCheckInTs: &last}
		risk := churnRisk(now, user, checkIns)
		assert.GreaterOrEqual(t, rank[risk], previous, "risk dropped at %d days", daysAgo)
		previous = rank[risk]
	}
}

func TestChurnRiskNeverCheckedIn(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	user := &store.User{CurrentStreak: 0, LongestStreak: 0}

	assert.Equal(t, RiskHigh, churnRisk(now, user, nil))
}

func TestIdentifyMotivators(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("streak and clear goal", func(t *testing.T) {
		user := &store.User{CurrentStreak: 8, LongestStreak: 8, Goal: "correr 10k"}
		motivators := identifyMotivators(nil, user)
		assert.Contains(t, motivators, MotivatorStreak)
		assert.Contains(t, motivators, MotivatorClearGoal)
	})

	t.Run("placeholder goal does not count", func(t *testing.T) {
		user := &store.User{Goal: "Sin definir"}
		assert.NotContains(t, identifyMotivators(nil, user), MotivatorClearGoal)
	})

	t.Run("energy improving", func(t *testing.T) {
		var checkIns []*store.CheckIn
		for i := 0; i < 7; i++ {
			checkIns = append(checkIns, checkInAt(day(now, i, 9), 3, 5, "bien", false))
		}
		for i := 7; i < 14; i++ {
			checkIns = append(checkIns, checkInAt(day(now, i, 9), 3, 3, "bien", false))
		}
		user := &store.User{}
		assert.Contains(t, identifyMotivators(checkIns, user), MotivatorEnergyImproving)
	})

	t.Run("consistent training", func(t *testing.T) {
		var checkIns []*store.CheckIn
		for i := 0; i < 10; i++ {
			checkIns = append(checkIns, checkInAt(day(now, i, 9), 3, 3, "bien", i < 8))
		}
		user := &store.User{}
		assert.Contains(t, identifyMotivators(checkIns, user), MotivatorConsistentTraining)
	})
}

func TestInsights(t *testing.T) {
	patterns := &Patterns{
		AverageSleep:      2.5,
		AverageEnergy:     2.0,
		TrainingFrequency: 30,
		RiskOfChurn:       RiskHigh,
		StreakTrend:       TrendDeclining,
	}

	insights := patterns.Insights()
	assert.Contains(t, insights, "Sueño promedio bajo")
	assert.Contains(t, insights, "Energía baja")
	assert.Contains(t, insights, "Baja frecuencia de entrenamiento")
	assert.Contains(t, insights, "Alto riesgo de abandono")
	assert.Contains(t, insights, "Racha en declive")

	// Healthy profile reads positive.
	healthy := &Patterns{
		AverageSleep:      4.5,
		AverageEnergy:     4.0,
		TrainingFrequency: 80,
		RiskOfChurn:       RiskLow,
		StreakTrend:       TrendImproving,
	}
	assert.Contains(t, healthy.Insights(), "Buena calidad de sueño")
	assert.Contains(t, healthy.Insights(), "Racha en crecimiento")
}
