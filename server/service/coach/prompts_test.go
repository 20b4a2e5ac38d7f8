package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridecoach/stride/store"
)

func TestBuildCheckInPrompt(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	user := &store.User{Name: "Lucía", Goal: "bajar peso", Restrictions: "rodilla", CurrentStreak: 5}
	data := &CheckInData{Sleep: 4, Energy: 3, Mood: "bien", WillTrain: true}
	recent := []*store.CheckIn{
		checkInAt(day(now, 0, 9), 4, 4, "bien", true),
		checkInAt(day(now, 1, 9), 2, 2, "cansado", false),
	}
	history := []*store.ConversationMessage{
		{Role: store.ConversationRoleAssistant, Message: "¿Cómo va ese plan?"},
		{Role: store.ConversationRoleUser, Message: "todo bien"},
	}

	messages := BuildCheckInPrompt(user, data, recent, history)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)

	system := messages[0].Content
	assert.Contains(t, system, "Eres Stride")
	assert.Contains(t, system, "**Usuario:** Lucía")
	assert.Contains(t, system, "**Restricciones:** rodilla")
	assert.Contains(t, system, "**Racha actual:** 5 días")
	assert.Contains(t, system, "Sueño 3.0/5, Energía 3.0/5")
	assert.Contains(t, system, "150 palabras")

	// History renders chronologically with speaker labels.
	assert.Contains(t, system, "Usuario: todo bien\nTú: ¿Cómo va ese plan?")

	userMessage := messages[1].Content
	assert.Contains(t, userMessage, "Sueño: 4/5")
	assert.Contains(t, userMessage, "Ánimo: bien")
	assert.Contains(t, userMessage, "¿Entrena hoy?: Sí")
}

func TestBuildCheckInPromptMinimalContext(t *testing.T) {
	user := &store.User{Name: "Juan", Goal: "Sin definir"}
	messages := BuildCheckInPrompt(user, &CheckInData{Sleep: 3, Energy: 3, Mood: "ok"}, nil, nil)

	system := messages[0].Content
	assert.NotContains(t, system, "Restricciones")
	assert.NotContains(t, system, "Racha actual")
	assert.NotContains(t, system, "Promedio reciente")
}

func TestBuildOnboardingPrompt(t *testing.T) {
	user := &store.User{Name: "Lucía", Goal: "ganar músculo"}

	tests := []struct {
		step     OnboardingStep
		contains string
	}{
		{StepWelcome, "pregunta su nombre"},
		{StepGoal, "El usuario se llama Lucía"},
		{StepRestrictions, "El usuario quiere: ganar músculo"},
		{StepSchedule, "check-in diario"},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			messages := BuildOnboardingPrompt(tt.step, user)
			require.Len(t, messages, 2)
			assert.Contains(t, messages[0].Content, "Onboarding paso a paso")
			assert.Contains(t, messages[1].Content, tt.contains)
		})
	}
}

func TestBuildReactivationPrompt(t *testing.T) {
	user := &store.User{Name: "Lucía", Goal: "bajar peso", LongestStreak: 14}
	messages := BuildReactivationPrompt(user, 3)

	system := messages[0].Content
	assert.Contains(t, system, "**Última racha:** 14 días")
	assert.Contains(t, system, "**Días sin check-in:** 3")
	assert.Contains(t, system, "micro-acción")
}

func TestBuildWeeklySummaryPrompt(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	user := &store.User{Name: "Lucía", Goal: "bajar peso", CurrentStreak: 4}
	week := []*store.CheckIn{
		checkInAt(day(now, 3, 9), 4, 4, "bien", true),
		checkInAt(day(now, 2, 9), 3, 3, "ok", false),
		checkInAt(day(now, 1, 9), 5, 4, "genial", true),
	}

	messages := BuildWeeklySummaryPrompt(user, week)
	userMessage := messages[1].Content
	assert.Contains(t, userMessage, "Día 1: Sueño 4/5, Energía 4/5, Entrenó: Sí")
	assert.Contains(t, userMessage, "Día 3: Sueño 5/5, Energía 4/5, Entrenó: Sí")
	assert.Contains(t, userMessage, "Total: 3/7 check-ins")
}
