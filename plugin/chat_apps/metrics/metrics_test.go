package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRecordEvent(t *testing.T) {
	registry := GetRegistry()
	platform := "whatsapp-test"

	registry.RecordEvent(platform, EventWebhookReceived, 0, nil)
	registry.RecordEvent(platform, EventWebhookValidated, 0, nil)
	registry.RecordEvent(platform, EventMessageProcessed, 100*time.Millisecond, nil)
	registry.RecordEvent(platform, EventResponseSent, 0, nil)

	snapshot := registry.GetMetrics(platform)
	if snapshot == nil {
		t.Fatal("expected metrics snapshot, got nil")
	}

	if snapshot.TotalReceived != 1 {
		t.Errorf("TotalReceived = %d, want 1", snapshot.TotalReceived)
	}
	if snapshot.TotalValidated != 1 {
		t.Errorf("TotalValidated = %d, want 1", snapshot.TotalValidated)
	}
	if snapshot.MessagesProcessed != 1 {
		t.Errorf("MessagesProcessed = %d, want 1", snapshot.MessagesProcessed)
	}
	if snapshot.ResponsesSent != 1 {
		t.Errorf("ResponsesSent = %d, want 1", snapshot.ResponsesSent)
	}

	registry.Clear(platform)
}

func TestRecordError(t *testing.T) {
	registry := GetRegistry()
	platform := "telegram-test"
	testErr := errors.New("test error")

	registry.RecordEvent(platform, EventWebhookParseError, 0, testErr)
	registry.RecordEvent(platform, EventResponseError, 50*time.Millisecond, testErr)

	snapshot := registry.GetMetrics(platform)
	if snapshot == nil {
		t.Fatal("expected metrics snapshot, got nil")
	}

	if snapshot.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", snapshot.ParseErrors)
	}
	if snapshot.ResponseErrors != 1 {
		t.Errorf("ResponseErrors = %d, want 1", snapshot.ResponseErrors)
	}
	if len(snapshot.RecentErrors) != 2 {
		t.Errorf("RecentErrors length = %d, want 2", len(snapshot.RecentErrors))
	}

	registry.Clear(platform)
}

func TestSuccessRate(t *testing.T) {
	registry := GetRegistry()
	platform := "rate-test"

	for i := 0; i < 4; i++ {
		registry.RecordEvent(platform, EventWebhookReceived, 0, nil)
	}
	for i := 0; i < 3; i++ {
		registry.RecordEvent(platform, EventWebhookValidated, 0, nil)
	}

	snapshot := registry.GetMetrics(platform)
	if snapshot == nil {
		t.Fatal("expected metrics snapshot, got nil")
	}

	if got := snapshot.SuccessRate(); got != 75.0 {
		t.Errorf("SuccessRate() = %v, want 75.0", got)
	}

	registry.Clear(platform)

	empty := &Snapshot{}
	if got := empty.SuccessRate(); got != 100.0 {
		t.Errorf("empty SuccessRate() = %v, want 100.0", got)
	}
}

func TestIsHealthy(t *testing.T) {
	fresh := &Snapshot{LastReceived: time.Now()}
	if !fresh.IsHealthy() {
		t.Error("recent snapshot should be healthy")
	}

	stale := &Snapshot{LastReceived: time.Now().Add(-10 * time.Minute)}
	if stale.IsHealthy() {
		t.Error("stale snapshot should not be healthy")
	}

	empty := &Snapshot{}
	if empty.IsHealthy() {
		t.Error("empty snapshot should not be healthy")
	}
}

func TestConcurrentRecording(t *testing.T) {
	registry := GetRegistry()
	platform := "concurrent-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.RecordEvent(platform, EventWebhookReceived, 0, nil)
			}
		}()
	}
	wg.Wait()

	snapshot := registry.GetMetrics(platform)
	if snapshot == nil {
		t.Fatal("expected metrics snapshot, got nil")
	}
	if snapshot.TotalReceived != 1000 {
		t.Errorf("TotalReceived = %d, want 1000", snapshot.TotalReceived)
	}

	registry.Clear(platform)
}
