package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// syncRecorder guards the body so the handler goroutine and the test can
// share it.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribeReportsGauge(t *testing.T) {
	var last atomic.Int32
	b := NewBroker(100*time.Millisecond, WithClientGauge(func(n int) { last.Store(int32(n)) }))
	defer b.Close()

	ch := b.Subscribe()
	if b.ClientCount() != 1 || last.Load() != 1 {
		t.Fatalf("clients = %d, gauge = %d", b.ClientCount(), last.Load())
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 || last.Load() != 0 {
		t.Fatalf("after unsubscribe: clients = %d, gauge = %d", b.ClientCount(), last.Load())
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeTimerTick, Data: map[string]int{"left_seconds": 3}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: timer.tick") || !strings.Contains(s, `"left_seconds":3`) {
			t.Errorf("unexpected message %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChangeThrottlesSummary(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(Event{Type: TypeRecordSaved, Data: map[string]string{"id": "a"}})
	b.PublishChange(Event{Type: TypeGrowthSaved, Data: map[string]string{"date": "2024-07-01"}})
	time.Sleep(50 * time.Millisecond)

	summaries, changes := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, TypeSummaryUpdated) {
			summaries++
			if !strings.Contains(s, `"cause":"record.saved"`) {
				t.Errorf("summary cause = %q", s)
			}
		} else {
			changes++
		}
	}
	if changes != 2 {
		t.Errorf("change events = %d, want 2", changes)
	}
	if summaries != 1 {
		t.Errorf("summary events = %d, want 1 (throttled)", summaries)
	}
}

func TestTicksDoNotTriggerSummary(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeTimerTick, Data: nil})
	time.Sleep(20 * time.Millisecond)
	for _, s := range drain(ch) {
		if strings.Contains(s, TypeSummaryUpdated) {
			t.Fatal("tick produced a summary event")
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if b.ClientCount() != 1 {
		t.Fatal("handler never subscribed")
	}

	b.PublishChange(Event{Type: TypeProfileUpdated, Data: map[string]string{"name": "Mia"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: profile.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Error("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 70 {
		b.Publish(Event{Type: TypeTimerTick, Data: map[string]string{"i": "x"}})
	}
}

func TestCloseStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatal("expected 0 clients after close")
	}
	b.Publish(Event{Type: TypeTimerTick})
	b.PublishChange(Event{Type: TypeRecordSaved})
}
