package proactive

import (
	"fmt"
	"strings"
)

// CheckInReminderText is the daily nudge sent at the user's preferred
// hour. It teaches the compact reply format.
func CheckInReminderText(name string) string {
	return fmt.Sprintf(`Hola %s 👋

Es hora de tu check-in diario. ¿Cómo amaneciste hoy?

Responde con 3 números rápidos:
1️⃣ Sueño (1-5)
2️⃣ Energía (1-5)
3️⃣ Ánimo (una palabra)

Ejemplo: 4, 3, bien`, name)
}

// CelebrationText congratulates a streak milestone with a message
// tailored to the exact count.
func CelebrationText(name string, streak int32) string {
	message := fmt.Sprintf(`🔥 ¡INCREÍBLE %s! 🔥

Acabás de completar %d días seguidos 🎉

`, strings.ToUpper(name), streak)

	switch {
	case streak == 7:
		message += "Tu primera semana completa. Esto es solo el comienzo 💪\n\n¿Cómo te sentís con este logro?"
	case streak == 14:
		message += "2 semanas de constancia pura. Ya no es suerte, es hábito 🌟\n\n¿Qué cambios notaste en vos?"
	case streak == 21:
		message += "21 días. El punto donde un hábito se vuelve parte de tu vida 🚀\n\n¿Cuál fue la clave para llegar hasta acá?"
	case streak == 30:
		message += "UN MES ENTERO. Oficialmente sos imparable 👑\n\n¿Dónde te ves en el próximo mes?"
	case streak >= 60:
		message += fmt.Sprintf("%d días de constancia. Esto ya es nivel LEYENDA 👏\n\nEstás en el top 1%% de usuarios de Stride.", streak)
	default:
		message += "Seguí sumando días, la constancia es tu superpoder 💪"
	}

	return message
}

// StreakReminderText warns that a long streak is one missed day away
// from breaking.
func StreakReminderText(name string, streak int32) string {
	return fmt.Sprintf(`🔥 %s, tu racha de %d días está en juego.

Todavía no hiciste tu check-in de hoy. Un minuto ahora y la racha sigue viva 💪

Respondé: Sueño (1-5), Energía (1-5), Ánimo. Ejemplo: 4, 3, bien`, name, streak)
}

// ProgressCelebrationText reinforces a user trending up.
func ProgressCelebrationText(name string) string {
	return fmt.Sprintf(`%s, tus últimos check-ins vienen con muy buena energía ⚡

Se nota el progreso y la constancia. Seguí así, que el impulso está de tu lado 🚀`, name)
}
