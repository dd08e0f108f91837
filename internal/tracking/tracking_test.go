// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
)

func newTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()

	s, err := store.Open(store.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecorderRecord(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s, nil, zerolog.Nop())
	ctx := context.Background()

	id := r.Record(ctx, "u1", models.EventLike, map[string]any{"style_id": "cubism"})
	if id == "" {
		t.Fatal("Record() returned empty id")
	}

	events, err := s.QueryEvents(ctx, store.EventFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("QueryEvents() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("stored %d events, want 1", len(events))
	}
	if events[0].ID != id || events[0].Type != models.EventLike {
		t.Errorf("stored event = %+v, want id %s type like", events[0], id)
	}
	if events[0].PayloadString("style_id") != "cubism" {
		t.Errorf("payload style_id = %q, want cubism", events[0].PayloadString("style_id"))
	}
}

func TestRecorderDropsInvalidType(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s, nil, zerolog.Nop())

	if id := r.Record(context.Background(), "u1", "bogus", nil); id != "" {
		t.Errorf("Record(bogus type) = %q, want empty id", id)
	}
}

// failingLog always fails appends.
type failingLog struct{}

func (failingLog) AppendEvent(context.Context, *models.UserEvent) error {
	return errors.New("disk on fire")
}

func (failingLog) QueryEvents(context.Context, store.EventFilter) ([]models.UserEvent, error) {
	return nil, errors.New("disk on fire")
}

func TestRecorderNeverFailsCaller(t *testing.T) {
	r := NewRecorder(failingLog{}, nil, zerolog.Nop())

	// Must not panic and must return the empty id.
	if id := r.Record(context.Background(), "u1", models.EventView, nil); id != "" {
		t.Errorf("Record() with failing store = %q, want empty id", id)
	}
}

func TestBusRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	want := models.UserEvent{ID: "e1", UserID: "u1", Type: models.EventView}
	if err := bus.Publish(&want); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	select {
	case msg := <-msgs:
		got, err := DecodeEvent(msg)
		if err != nil {
			t.Fatalf("DecodeEvent() error: %v", err)
		}
		msg.Ack()
		if got.ID != want.ID || got.UserID != want.UserID || got.Type != want.Type {
			t.Errorf("decoded event = %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for bus message")
	}
}

func TestRecorderPublishesToBus(t *testing.T) {
	s := newTestStore(t)
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	r := NewRecorder(s, bus, zerolog.Nop())
	id := r.Record(ctx, "u1", models.EventPurchase, nil)
	if id == "" {
		t.Fatal("Record() returned empty id")
	}

	select {
	case msg := <-msgs:
		got, err := DecodeEvent(msg)
		if err != nil {
			t.Fatalf("DecodeEvent() error: %v", err)
		}
		msg.Ack()
		if got.ID != id {
			t.Errorf("bus event id = %q, want %q", got.ID, id)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for bus message")
	}
}
