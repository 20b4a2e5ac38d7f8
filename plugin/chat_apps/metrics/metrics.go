// Package metrics provides webhook health monitoring for chat channels.
package metrics

import (
	"sync"
	"time"
)

// EventType represents the type of webhook event being tracked.
type EventType string

const (
	EventWebhookReceived   EventType = "webhook_received"
	EventWebhookValidated  EventType = "webhook_validated"
	EventWebhookParseError EventType = "webhook_parse_error"
	EventMessageProcessed  EventType = "message_processed"
	EventResponseSent      EventType = "response_sent"
	EventResponseError     EventType = "response_error"
)

// ChannelMetrics tracks delivery metrics for one platform.
type ChannelMetrics struct {
	mu sync.RWMutex

	// Counters
	totalReceived     int64
	totalValidated    int64
	parseErrors       int64
	messagesProcessed int64
	responsesSent     int64
	responseErrors    int64

	// Timing
	lastReceived     time.Time
	lastValidated    time.Time
	lastError        time.Time
	avgProcessTime   time.Duration
	totalProcessTime int64

	// Error tracking
	recentErrors []ErrorRecord
}

// ErrorRecord records details of an error.
type ErrorRecord struct {
	Timestamp time.Time
	EventType EventType
	Error     string
	Platform  string
}

// Registry holds metrics for all registered platforms.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]*ChannelMetrics
}

// Global registry instance.
var globalRegistry = &Registry{
	metrics: make(map[string]*ChannelMetrics),
}

// GetRegistry returns the global metrics registry.
func GetRegistry() *Registry {
	return globalRegistry
}

// RecordEvent records a webhook event for a platform.
func (r *Registry) RecordEvent(platform string, eventType EventType, processDuration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.metrics[platform]
	if !exists {
		m = &ChannelMetrics{
			recentErrors: make([]ErrorRecord, 0, 10),
		}
		r.metrics[platform] = m
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	switch eventType {
	case EventWebhookReceived:
		m.totalReceived++
		m.lastReceived = now

	case EventWebhookValidated:
		m.totalValidated++
		m.lastValidated = now

	case EventWebhookParseError:
		m.parseErrors++
		m.lastError = now
		if err != nil {
			m.addErrorRecord(now, eventType, err.Error(), platform)
		}

	case EventMessageProcessed:
		m.messagesProcessed++
		if processDuration > 0 {
			m.totalProcessTime += int64(processDuration)
			m.avgProcessTime = time.Duration(m.totalProcessTime / m.messagesProcessed)
		}

	case EventResponseSent:
		m.responsesSent++

	case EventResponseError:
		m.responseErrors++
		m.lastError = now
		if err != nil {
			m.addErrorRecord(now, eventType, err.Error(), platform)
		}
	}
}

// addErrorRecord adds an error to the recent errors list.
func (m *ChannelMetrics) addErrorRecord(ts time.Time, eventType EventType, errMsg string, platform string) {
	record := ErrorRecord{
		Timestamp: ts,
		EventType: eventType,
		Error:     errMsg,
		Platform:  platform,
	}

	// Keep only last 10 errors
	m.recentErrors = append(m.recentErrors, record)
	if len(m.recentErrors) > 10 {
		m.recentErrors = m.recentErrors[1:]
	}
}

// GetMetrics returns a snapshot of metrics for a platform.
func (r *Registry) GetMetrics(platform string) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.metrics[platform]
	if !exists {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshotLocked()
}

// GetAllMetrics returns snapshots of all platforms.
func (r *Registry) GetAllMetrics() map[string]*Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Snapshot)
	for platform, m := range r.metrics {
		m.mu.RLock()
		result[platform] = m.snapshotLocked()
		m.mu.RUnlock()
	}
	return result
}

func (m *ChannelMetrics) snapshotLocked() *Snapshot {
	return &Snapshot{
		TotalReceived:     m.totalReceived,
		TotalValidated:    m.totalValidated,
		ParseErrors:       m.parseErrors,
		MessagesProcessed: m.messagesProcessed,
		ResponsesSent:     m.responsesSent,
		ResponseErrors:    m.responseErrors,
		LastReceived:      m.lastReceived,
		LastValidated:     m.lastValidated,
		LastError:         m.lastError,
		AvgProcessTime:    m.avgProcessTime,
		RecentErrors:      append([]ErrorRecord{}, m.recentErrors...),
	}
}

// Clear removes metrics for a platform.
func (r *Registry) Clear(platform string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.metrics, platform)
}

// Snapshot is a thread-safe snapshot of channel metrics.
type Snapshot struct {
	TotalReceived     int64
	TotalValidated    int64
	ParseErrors       int64
	MessagesProcessed int64
	ResponsesSent     int64
	ResponseErrors    int64
	LastReceived      time.Time
	LastValidated     time.Time
	LastError         time.Time
	AvgProcessTime    time.Duration
	RecentErrors      []ErrorRecord
}

// SuccessRate calculates the success rate (validated / received).
func (s *Snapshot) SuccessRate() float64 {
	if s.TotalReceived == 0 {
		return 100.0
	}
	return float64(s.TotalValidated) / float64(s.TotalReceived) * 100.0
}

// IsHealthy checks if the webhook is healthy (received within last 5 minutes).
func (s *Snapshot) IsHealthy() bool {
	if s.LastReceived.IsZero() {
		return false // No data yet
	}
	return time.Since(s.LastReceived) < 5*time.Minute
}

// ErrorRate calculates the error rate (errors / processed).
func (s *Snapshot) ErrorRate() float64 {
	if s.MessagesProcessed == 0 {
		return 0.0
	}
	return float64(s.ResponseErrors) / float64(s.MessagesProcessed) * 100.0
}
