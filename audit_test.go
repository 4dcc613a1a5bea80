package shopauth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAuditDispatcherDeliversEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: "login_success", Username: "alice", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != "login_success" || event.Username != "alice" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{}, nil)
	if d != nil {
		t.Fatal("disabled audit must produce a nil dispatcher")
	}

	// A nil dispatcher is safe.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

// blockingSink stalls the worker so the dispatcher buffer fills up.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the worker, one fills the buffer; everything after
	// that is shed.
	for i := 0; i < 6; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "login_failure"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}

	close(sink.release)
	d.Close()
}

func TestAuditDispatcherCloseDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: fmt.Sprintf("event_%d", i)})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
		default:
			if delivered != 5 {
				t.Fatalf("expected 5 drained events, got %d", delivered)
			}
			return
		}
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrCredentialsRejected, auditErrCredentialsRejected},
		{fmt.Errorf("wrapped: %w", ErrCodeInvalid), auditErrCodeInvalid},
		{ErrCodeAttemptsExceeded, auditErrAttemptsExceeded},
		{ErrBackendUnreachable, auditErrBackendUnreachable},
		{errors.New("mystery"), auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWithAuditSinkEnablesEmission(t *testing.T) {
	fb := newFakeBackend(t)
	sink := NewChannelSink(8)

	client, err := New().
		WithBaseURL(fb.server.URL).
		WithAuditSink(sink).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := client.Login(context.Background(), testUsername, "wrong"); err == nil {
		t.Fatal("expected login to fail")
	}

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventLoginFailure {
			t.Fatalf("unexpected event type %q", event.EventType)
		}
	case <-time.After(time.Second):
		t.Fatal("attaching a sink must enable audit emission")
	}
}

func TestLoginFailureEmitsAuditEvent(t *testing.T) {
	fb := newFakeBackend(t)
	sink := NewChannelSink(8)

	cfg := defaultConfig()
	cfg.API.BaseURL = fb.server.URL
	cfg.Audit.Enabled = true

	client, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := client.Login(ctx, testUsername, "wrong"); err == nil {
		t.Fatal("expected login to fail")
	}

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventLoginFailure {
			t.Fatalf("unexpected event type %q", event.EventType)
		}
		if event.Username != testUsername {
			t.Fatalf("unexpected username %q", event.Username)
		}
		if event.RequestID != "req-42" {
			t.Fatalf("request ID not propagated: %q", event.RequestID)
		}
		if event.Error != string(auditErrCredentialsRejected) {
			t.Fatalf("unexpected error code %q", event.Error)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event delivered")
	}
}
