package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

// ConversationState is one step of the guided chat flows. States are
// kept in memory per phone number; the flows are transport-independent.
type ConversationState string

const (
	StateIdle ConversationState = "idle"

	// Onboarding flow.
	StateAwaitingName         ConversationState = "awaiting_name"
	StateAwaitingGoal         ConversationState = "awaiting_goal"
	StateAwaitingRestrictions ConversationState = "awaiting_restrictions"
	StateAwaitingReminderHour ConversationState = "awaiting_reminder_hour"

	// Check-in flow.
	StateAwaitingSleep     ConversationState = "awaiting_sleep"
	StateAwaitingEnergy    ConversationState = "awaiting_energy"
	StateAwaitingMood      ConversationState = "awaiting_mood"
	StateAwaitingTrainFlag ConversationState = "awaiting_train_flag"
)

// sessionTTL bounds how long a half-finished flow survives without a
// new message before resetting to idle.
const sessionTTL = 30 * time.Minute

// defaultScore is assumed when a numeric answer cannot be parsed.
const defaultScore = 3

var checkInTriggers = []string{"checkin", "check-in", "check in", "hola", "buenos días", "buen día"}

type session struct {
	state        ConversationState
	data         CheckInData
	lastActivity time.Time
}

// ConversationHandler routes inbound chat messages through the
// onboarding and check-in flows, falling back to free conversation.
type ConversationHandler struct {
	coach *Coach

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
}

// NewConversationHandler creates a handler on top of the coach.
func NewConversationHandler(c *Coach) *ConversationHandler {
	return &ConversationHandler{
		coach:    c,
		sessions: make(map[string]*session),
	}
}

// HandleMessage processes one inbound message from a phone number and
// returns the reply to send back.
func (h *ConversationHandler) HandleMessage(ctx context.Context, phone, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	user, err := h.coach.store.GetUser(ctx, &store.FindUser{Phone: &phone})
	if err != nil {
		return "", errors.Wrap(err, "failed to look up user")
	}
	if user == nil {
		return h.startOnboarding(ctx, phone)
	}
	if !user.OnboardingComplete {
		return h.continueOnboarding(ctx, user, content)
	}
	return h.handleOnboarded(ctx, user, content)
}

// State returns the current flow state for a phone number, mostly for
// tests and diagnostics.
func (h *ConversationHandler) State(phone string) ConversationState {
	return h.session(phone).state
}

func (h *ConversationHandler) session(phone string) *session {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sweepExpired()

	s, ok := h.sessions[phone]
	if !ok || time.Since(s.lastActivity) > sessionTTL {
		s = &session{state: StateIdle}
		h.sessions[phone] = s
	}
	s.lastActivity = time.Now()
	return s
}

// sweepExpired drops sessions of phones that went quiet, so the map
// stays bounded by recently active users. Runs at most once per TTL.
// Caller holds the lock.
func (h *ConversationHandler) sweepExpired() {
	now := time.Now()
	if now.Sub(h.lastSweep) < sessionTTL {
		return
	}
	h.lastSweep = now

	for phone, s := range h.sessions {
		if now.Sub(s.lastActivity) > sessionTTL {
			delete(h.sessions, phone)
		}
	}
}

func (h *ConversationHandler) setState(phone string, state ConversationState) {
	h.session(phone).state = state
}

// startOnboarding registers an unknown phone number and opens the
// guided first-contact flow.
func (h *ConversationHandler) startOnboarding(ctx context.Context, phone string) (string, error) {
	user, err := h.coach.store.CreateUser(ctx, &store.CreateUser{
		UID:   shortuuid.New(),
		Phone: phone,
		Goal:  goalPlaceholder,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create user")
	}

	slog.Info("onboarding started", "user", user.UID)
	h.setState(phone, StateAwaitingName)
	return h.coach.GenerateOnboardingMessage(ctx, user, StepWelcome), nil
}

func (h *ConversationHandler) continueOnboarding(ctx context.Context, user *store.User, content string) (string, error) {
	s := h.session(user.Phone)

	switch s.state {
	case StateAwaitingName:
		name := strings.TrimSpace(content)
		updated, err := h.coach.store.UpdateUser(ctx, &store.UpdateUser{ID: user.ID, Name: &name})
		if err != nil {
			return "", errors.Wrap(err, "failed to save name")
		}
		s.state = StateAwaitingGoal
		return h.coach.GenerateOnboardingMessage(ctx, updated, StepGoal), nil

	case StateAwaitingGoal:
		goal := strings.TrimSpace(content)
		updated, err := h.coach.store.UpdateUser(ctx, &store.UpdateUser{ID: user.ID, Goal: &goal})
		if err != nil {
			return "", errors.Wrap(err, "failed to save goal")
		}
		s.state = StateAwaitingRestrictions
		return h.coach.GenerateOnboardingMessage(ctx, updated, StepRestrictions), nil

	case StateAwaitingRestrictions:
		restrictions := strings.TrimSpace(content)
		if isNegation(restrictions) {
			restrictions = ""
		}
		updated, err := h.coach.store.UpdateUser(ctx, &store.UpdateUser{ID: user.ID, Restrictions: &restrictions})
		if err != nil {
			return "", errors.Wrap(err, "failed to save restrictions")
		}
		s.state = StateAwaitingReminderHour
		return h.coach.GenerateOnboardingMessage(ctx, updated, StepSchedule), nil

	case StateAwaitingReminderHour:
		hour := parseReminderHour(content)
		if _, err := h.coach.store.UpsertUserPreferences(ctx, &store.UpsertUserPreferences{
			UserID:       user.ID,
			ReminderHour: hour,
		}); err != nil {
			return "", errors.Wrap(err, "failed to save preferences")
		}
		complete := true
		updated, err := h.coach.store.UpdateUser(ctx, &store.UpdateUser{ID: user.ID, OnboardingComplete: &complete})
		if err != nil {
			return "", errors.Wrap(err, "failed to complete onboarding")
		}

		h.recordOnboardingEvent(ctx, user.ID)
		slog.Info("onboarding completed", "user", user.UID, "reminder_hour", hour)
		s.state = StateIdle
		return fmt.Sprintf("¡Listo, %s! 🎉 Te escribo todos los días a las %d:00 para tu check-in. Podés adelantarte cuando quieras escribiendo \"checkin\".", updated.Name, hour), nil

	default:
		// A half-created user with no live session restarts at the name.
		s.state = StateAwaitingName
		return h.coach.GenerateOnboardingMessage(ctx, user, StepWelcome), nil
	}
}

func (h *ConversationHandler) handleOnboarded(ctx context.Context, user *store.User, content string) (string, error) {
	s := h.session(user.Phone)

	switch s.state {
	case StateAwaitingSleep:
		s.data.Sleep = parseScore(content)
		s.state = StateAwaitingEnergy
		return "¿Y tu energía? Del 1 al 5 ⚡", nil

	case StateAwaitingEnergy:
		s.data.Energy = parseScore(content)
		s.state = StateAwaitingMood
		return "¿Cómo está tu ánimo hoy? Una palabra alcanza 🙂", nil

	case StateAwaitingMood:
		s.data.Mood = strings.TrimSpace(content)
		s.state = StateAwaitingTrainFlag
		return "¿Vas a entrenar hoy? (sí/no) 🏋️", nil

	case StateAwaitingTrainFlag:
		s.data.WillTrain = parseYesNo(content)
		data := s.data
		s.state = StateIdle
		s.data = CheckInData{}
		return h.finishCheckIn(ctx, user, &data)
	}

	// Idle: quick-format answer, check-in trigger, or free chat.
	if data, ok := parseQuickCheckIn(content); ok {
		return h.finishCheckIn(ctx, user, data)
	}
	if isCheckInTrigger(content) {
		done, err := h.coach.HasCheckInToday(ctx, user.ID, time.Now())
		if err != nil {
			return "", err
		}
		if done {
			return fmt.Sprintf("Che %s, ¡ya hiciste tu check-in de hoy! 🎉\n\n¿Querés que charlemos sobre algo más?", user.Name), nil
		}
		s.state = StateAwaitingSleep
		return "¡Vamos con tu check-in! 💪 ¿Cómo dormiste hoy? Respondé del 1 al 5 😴", nil
	}

	reply := h.coach.GenerateConversationReply(ctx, user, content)
	h.coach.logExchange(ctx, user.ID, content, reply)
	return reply, nil
}

func (h *ConversationHandler) finishCheckIn(ctx context.Context, user *store.User, data *CheckInData) (string, error) {
	result, err := h.coach.CompleteCheckIn(ctx, user, data)
	if errors.Is(err, ErrAlreadyCheckedIn) {
		return fmt.Sprintf("Che %s, ¡ya hiciste tu check-in de hoy! 🎉", user.Name), nil
	}
	if err != nil {
		return "", err
	}

	reply := result.Reply
	if result.NewRecord && result.User.CurrentStreak > 1 {
		reply += fmt.Sprintf("\n\n🔥 ¡Nuevo récord personal: %d días seguidos!", result.User.CurrentStreak)
	}
	return reply, nil
}

func (h *ConversationHandler) recordOnboardingEvent(ctx context.Context, userID int32) {
	if _, err := h.coach.store.CreateAnalyticsEvent(ctx, &store.CreateAnalyticsEvent{
		EventType: "onboarding_completed",
		UserID:    &userID,
		Metadata:  "{}",
	}); err != nil {
		slog.Warn("failed to record onboarding event", "user_id", userID, "error", err)
	}
}

// parseScore extracts the first 1-5 digit from an answer; anything
// unparseable falls back to the neutral middle score.
func parseScore(content string) int32 {
	for _, field := range strings.FieldsFunc(content, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if n, err := strconv.Atoi(field); err == nil {
			return clampScore(int32(n))
		}
	}
	return defaultScore
}

func parseYesNo(content string) bool {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "sí", "si", "s", "sip", "dale", "claro", "obvio", "yes", "y":
		return true
	default:
		return false
	}
}

func isNegation(content string) bool {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "no", "ninguna", "ninguno", "nada", "-":
		return true
	default:
		return false
	}
}

func isCheckInTrigger(content string) bool {
	normalized := strings.ToLower(strings.TrimSpace(content))
	for _, trigger := range checkInTriggers {
		if normalized == trigger {
			return true
		}
	}
	return false
}

// parseQuickCheckIn handles the compact reminder format
// "sleep, energy, mood[, sí/no]", e.g. "4, 3, bien".
func parseQuickCheckIn(content string) (*CheckInData, bool) {
	parts := strings.Split(content, ",")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, false
	}

	sleep, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, false
	}
	energy, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	mood := strings.TrimSpace(parts[2])
	if mood == "" {
		return nil, false
	}

	data := &CheckInData{
		Sleep:  clampScore(int32(sleep)),
		Energy: clampScore(int32(energy)),
		Mood:   mood,
	}
	if len(parts) == 4 {
		data.WillTrain = parseYesNo(parts[3])
	}
	return data, true
}

// parseReminderHour accepts a plain hour ("8"), a clock time ("08:00"),
// or a day-part word; out-of-range input gets the default.
func parseReminderHour(content string) int32 {
	normalized := strings.ToLower(strings.TrimSpace(content))

	switch {
	case strings.Contains(normalized, "mañana"):
		return 8
	case strings.Contains(normalized, "mediodía"), strings.Contains(normalized, "mediodia"):
		return 13
	case strings.Contains(normalized, "tarde"):
		return 17
	case strings.Contains(normalized, "noche"):
		return 20
	}

	if idx := strings.IndexAny(normalized, ":."); idx > 0 {
		normalized = normalized[:idx]
	}
	if n, err := strconv.Atoi(strings.TrimSpace(normalized)); err == nil && n >= 0 && n <= 23 {
		return int32(n)
	}
	return store.DefaultReminderHour
}
