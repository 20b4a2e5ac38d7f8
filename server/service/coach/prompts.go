package coach

import (
	"fmt"
	"strings"

	"github.com/stridecoach/stride/ai/llm"
	"github.com/stridecoach/stride/store"
)

// systemIdentity is the base system prompt shared by every coaching
// interaction. All user-facing text is Spanish.
const systemIdentity = `Eres Stride, un coach personal de bienestar en WhatsApp.

**Tu propósito:**
Acompañar a las personas en su transformación física, mental y emocional con:
- Constancia diaria (check-ins cortos y útiles)
- Recomendaciones personalizadas (entrenamiento, nutrición, descanso, mentalidad)
- Empatía y motivación genuina (no robótico, humano)

**Tu estilo:**
- Conversacional y cercano (tuteo)
- Respuestas breves y accionables (2-3 párrafos máximo)
- Emojis moderados (1-2 por mensaje)
- Positivo pero realista (no frases genéricas)

**Tus límites:**
- NO eres médico ni psicólogo (no diagnosticas)
- NO das planes sin contexto suficiente
- SI tienes dudas, preguntas antes de recomendar`

// OnboardingStep identifies one step of the guided first-contact flow.
type OnboardingStep string

const (
	StepWelcome      OnboardingStep = "welcome"
	StepGoal         OnboardingStep = "goal"
	StepRestrictions OnboardingStep = "restrictions"
	StepSchedule     OnboardingStep = "schedule"
)

// CheckInData carries the four answers of a completed daily check-in.
type CheckInData struct {
	Sleep     int32
	Energy    int32
	Mood      string
	WillTrain bool
}

// BuildCheckInPrompt assembles the system and user messages for the
// coaching reply to a fresh check-in. recentCheckIns and history are
// newest first.
func BuildCheckInPrompt(user *store.User, data *CheckInData, recentCheckIns []*store.CheckIn, history []*store.ConversationMessage) []llm.Message {
	contextParts := []string{
		fmt.Sprintf("**Usuario:** %s", user.Name),
		fmt.Sprintf("**Objetivo:** %s", user.Goal),
	}
	if user.Restrictions != "" {
		contextParts = append(contextParts, fmt.Sprintf("**Restricciones:** %s", user.Restrictions))
	}
	if user.CurrentStreak > 0 {
		contextParts = append(contextParts, fmt.Sprintf("**Racha actual:** %d días 🔥", user.CurrentStreak))
	}

	if len(recentCheckIns) > 1 {
		last := recentCheckIns
		if len(last) > 3 {
			last = last[:3]
		}
		avgSleep := averageOf(last, func(c *store.CheckIn) int32 { return c.Sleep })
		avgEnergy := averageOf(last, func(c *store.CheckIn) int32 { return c.Energy })
		contextParts = append(contextParts,
			fmt.Sprintf("**Promedio reciente:** Sueño %.1f/5, Energía %.1f/5", avgSleep, avgEnergy))
	}

	if transcript := renderHistory(history, 6); transcript != "" {
		contextParts = append(contextParts, "\n**Conversación reciente:**\n"+transcript)
	}

	system := fmt.Sprintf(`%s

**CONTEXTO DEL USUARIO:**
%s

**TAREA:**
El usuario acaba de hacer su check-in diario. Analiza los datos y responde con:
1. **Feedback inmediato:** Comentario breve sobre su estado (sueño/energía/ánimo)
2. **Recomendación del día:** 1 acción específica y accionable basada en su estado y objetivo
3. **Pregunta de seguimiento:** 1 pregunta para mantener la conversación activa

Respuesta máxima: 150 palabras.`, systemIdentity, strings.Join(contextParts, "\n"))

	userMessage := fmt.Sprintf(`Check-in de hoy:
- Sueño: %d/5
- Energía: %d/5
- Ánimo: %s
- ¿Entrena hoy?: %s`, data.Sleep, data.Energy, data.Mood, siNo(data.WillTrain))

	return llm.FormatMessages(system, userMessage, nil)
}

// BuildOnboardingPrompt assembles the messages driving one onboarding
// step. The assistant asks a single question per step.
func BuildOnboardingPrompt(step OnboardingStep, user *store.User) []llm.Message {
	system := systemIdentity + `

**TAREA: Onboarding paso a paso**
Estás guiando al usuario en su primera configuración. Mantén el tono amigable, haz 1 pregunta por vez, y valida las respuestas antes de avanzar.`

	var userMessage string
	switch step {
	case StepWelcome:
		userMessage = "Inicia el onboarding. Saluda y pregunta su nombre."
	case StepGoal:
		userMessage = fmt.Sprintf("El usuario se llama %s. Pregunta qué quiere lograr (opciones: bajar peso, ganar músculo, mejorar energía, crear hábitos, sentirse mejor).", user.Name)
	case StepRestrictions:
		userMessage = fmt.Sprintf("El usuario quiere: %s. Pregunta si tiene lesiones o limitaciones físicas.", user.Goal)
	case StepSchedule:
		userMessage = "Todo registrado. Pregunta a qué hora prefiere recibir su check-in diario (mañana/mediodía/tarde/noche)."
	}

	return llm.FormatMessages(system, userMessage, nil)
}

// BuildConversationPrompt assembles the messages for a free-form user
// message outside any structured flow. history is newest first.
func BuildConversationPrompt(user *store.User, userMessage string, history []*store.ConversationMessage) []llm.Message {
	contextParts := []string{
		fmt.Sprintf("**Usuario:** %s", user.Name),
		fmt.Sprintf("**Objetivo:** %s", user.Goal),
		fmt.Sprintf("**Racha:** %d días", user.CurrentStreak),
	}
	if transcript := renderHistory(history, 10); transcript != "" {
		contextParts = append(contextParts, "\n**Conversación reciente:**\n"+transcript)
	}

	system := fmt.Sprintf(`%s

**CONTEXTO DEL USUARIO:**
%s

**TAREA:**
Responde la consulta del usuario de forma útil y personalizada. Si pregunta sobre ejercicios, nutrición, o bienestar, da recomendaciones específicas basadas en su objetivo y restricciones.

Respuesta máxima: 200 palabras.`, systemIdentity, strings.Join(contextParts, "\n"))

	return llm.FormatMessages(system, userMessage, nil)
}

// BuildReactivationPrompt assembles the messages for a win-back message
// after the user went quiet.
func BuildReactivationPrompt(user *store.User, daysSinceLastCheckIn int) []llm.Message {
	contextParts := []string{
		fmt.Sprintf("**Usuario:** %s", user.Name),
		fmt.Sprintf("**Objetivo:** %s", user.Goal),
		fmt.Sprintf("**Última racha:** %d días (récord personal)", user.LongestStreak),
		fmt.Sprintf("**Días sin check-in:** %d", daysSinceLastCheckIn),
	}

	system := fmt.Sprintf(`%s

**CONTEXTO:**
%s

**TAREA:**
Genera un mensaje de reactivación empático y motivador. NO uses frases genéricas tipo "¿qué pasó?".
Enfócate en:
1. Recordar su objetivo original
2. Mencionar su mejor racha (si existe)
3. Proponer 1 micro-acción simple para volver (ej: "¿te animas a un check-in rápido hoy?")

Máximo: 100 palabras.`, systemIdentity, strings.Join(contextParts, "\n"))

	return llm.FormatMessages(system, "Genera el mensaje de reactivación ahora.", nil)
}

// BuildWeeklySummaryPrompt assembles the messages for the motivational
// weekly recap. weeklyCheckIns is oldest first so "Día 1" reads
// naturally.
func BuildWeeklySummaryPrompt(user *store.User, weeklyCheckIns []*store.CheckIn) []llm.Message {
	system := systemIdentity + `

**TAREA: Resumen Semanal**
Genera un resumen motivador de la semana del usuario. Incluye:
1. **Consistencia:** Check-ins completados vs. esperados
2. **Tendencias:** Mejoras o caídas en sueño/energía/entrenamiento
3. **Logro destacado:** Algo positivo específico
4. **Ajuste sugerido:** 1 cambio simple para la próxima semana

Máximo: 200 palabras.`

	lines := make([]string, 0, len(weeklyCheckIns))
	for i, checkIn := range weeklyCheckIns {
		lines = append(lines, fmt.Sprintf("Día %d: Sueño %d/5, Energía %d/5, Entrenó: %s",
			i+1, checkIn.Sleep, checkIn.Energy, siNo(checkIn.TrainedToday)))
	}

	userMessage := fmt.Sprintf(`Usuario: %s
Objetivo: %s
Racha actual: %d días

**Check-ins de la semana:**
%s

Total: %d/7 check-ins`, user.Name, user.Goal, user.CurrentStreak, strings.Join(lines, "\n"), len(weeklyCheckIns))

	return llm.FormatMessages(system, userMessage, nil)
}

// renderHistory formats the newest maxLines conversation rows as a
// transcript in chronological order.
func renderHistory(history []*store.ConversationMessage, maxLines int) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxLines {
		history = history[:maxLines]
	}

	lines := make([]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		speaker := "Usuario"
		if history[i].Role == store.ConversationRoleAssistant {
			speaker = "Tú"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, history[i].Message))
	}
	return strings.Join(lines, "\n")
}

func siNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
