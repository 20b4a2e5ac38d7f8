package coach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stridecoach/stride/ai/llm"
	"github.com/stridecoach/stride/server/metrics"
	"github.com/stridecoach/stride/store"
)

// Coach generates coaching replies. Every generation has a static
// Spanish fallback so chat users never see an LLM error.
type Coach struct {
	store *store.Store
	llm   llm.Service
}

// New creates a coach. llmService may be nil when AI is disabled; all
// generations then return their fallback text.
func New(s *store.Store, llmService llm.Service) *Coach {
	return &Coach{store: s, llm: llmService}
}

// Store exposes the underlying store for collaborating services.
func (c *Coach) Store() *store.Store {
	return c.store
}

// generate runs one chat completion and swallows failures into the
// fallback text.
func (c *Coach) generate(ctx context.Context, kind string, messages []llm.Message, fallback string) string {
	if c.llm == nil {
		return fallback
	}
	content, stats, err := c.llm.Chat(ctx, messages)
	if err != nil || content == "" {
		slog.Warn("coach: generation failed, using fallback", "kind", kind, "error", err)
		return fallback
	}
	metrics.LLMRequestDuration.Observe(float64(stats.TotalDurationMs) / 1000)
	metrics.LLMTokensUsed.Add(float64(stats.TotalTokens))
	slog.Debug("coach: generated reply", "kind", kind, "tokens", stats.TotalTokens, "duration_ms", stats.TotalDurationMs)
	return content
}

// GenerateCheckInReply produces the coaching response to a completed
// check-in: feedback, one recommendation, one follow-up question.
func (c *Coach) GenerateCheckInReply(ctx context.Context, user *store.User, data *CheckInData) string {
	limit := 3
	recentCheckIns, err := c.store.ListCheckIns(ctx, &store.FindCheckIn{UserID: &user.ID, Limit: &limit})
	if err != nil {
		slog.Warn("coach: failed to load recent check-ins", "user", user.UID, "error", err)
	}
	history, err := c.store.ListConversationMessages(ctx, &store.FindConversationMessage{UserID: &user.ID, Limit: &limit})
	if err != nil {
		slog.Warn("coach: failed to load conversation history", "user", user.UID, "error", err)
	}

	fallback := fmt.Sprintf("¡Gracias por tu check-in, %s! 💪 Registrado: sueño %d/5, energía %d/5. Cada día cuenta, seguí así.", user.Name, data.Sleep, data.Energy)
	return c.generate(ctx, "checkin", BuildCheckInPrompt(user, data, recentCheckIns, history), fallback)
}

// GenerateConversationReply produces the response to a free-form
// message outside any structured flow.
func (c *Coach) GenerateConversationReply(ctx context.Context, user *store.User, message string) string {
	limit := 10
	history, err := c.store.ListConversationMessages(ctx, &store.FindConversationMessage{UserID: &user.ID, Limit: &limit})
	if err != nil {
		slog.Warn("coach: failed to load conversation history", "user", user.UID, "error", err)
	}

	fallback := "Estoy con un problema técnico para responderte ahora 🙏 Probá de nuevo en unos minutos."
	return c.generate(ctx, "conversation", BuildConversationPrompt(user, message, history), fallback)
}

// GenerateOnboardingMessage produces the question for one onboarding
// step.
func (c *Coach) GenerateOnboardingMessage(ctx context.Context, user *store.User, step OnboardingStep) string {
	return c.generate(ctx, "onboarding", BuildOnboardingPrompt(step, user), onboardingFallback(step, user))
}

// GenerateReactivationMessage produces a win-back message for a user
// who went quiet.
func (c *Coach) GenerateReactivationMessage(ctx context.Context, user *store.User, daysSinceLastCheckIn int) string {
	fallback := fmt.Sprintf("Hola %s 👋 Hace %d días que no sé de vos. Tu objetivo sigue ahí esperándote. ¿Te animás a un check-in rápido hoy?", user.Name, daysSinceLastCheckIn)
	return c.generate(ctx, "reactivation", BuildReactivationPrompt(user, daysSinceLastCheckIn), fallback)
}

// GenerateWeeklySummary produces the motivational weekly recap.
// weeklyCheckIns is oldest first.
func (c *Coach) GenerateWeeklySummary(ctx context.Context, user *store.User, weeklyCheckIns []*store.CheckIn) string {
	fallback := fmt.Sprintf("Esta semana completaste %d/7 check-ins, %s. ¡Vamos por más la próxima! 💪", len(weeklyCheckIns), user.Name)
	return c.generate(ctx, "weekly_summary", BuildWeeklySummaryPrompt(user, weeklyCheckIns), fallback)
}

func onboardingFallback(step OnboardingStep, user *store.User) string {
	switch step {
	case StepWelcome:
		return "¡Hola! 👋 Soy Stride, tu coach personal de bienestar. Vamos a conocernos: ¿cómo te llamás?"
	case StepGoal:
		return fmt.Sprintf("¡Un gusto, %s! ¿Qué te gustaría lograr? Por ejemplo: bajar peso, ganar músculo, mejorar energía, crear hábitos o simplemente sentirte mejor.", user.Name)
	case StepRestrictions:
		return "¡Buen objetivo! ¿Tenés alguna lesión o limitación física que deba tener en cuenta?"
	case StepSchedule:
		return "¡Listo, quedó todo registrado! ¿A qué hora preferís recibir tu check-in diario? Decime una hora, por ejemplo: 8."
	default:
		return "Sigamos con tu configuración inicial 🙌"
	}
}
