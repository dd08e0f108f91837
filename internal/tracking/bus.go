// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package tracking owns the durable event log and session lifecycle: the
// append-only Recorder, the per-user session Tracker, and the in-process
// event bus that fans recorded events out to interested subscribers.
package tracking

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/atelier-labs/cloe/internal/models"
)

// TopicEvents is the bus topic recorded events are published on. The host
// application subscribes here to react to tracking side effects after its
// own transaction completes, instead of hooking into the recorder itself.
const TopicEvents = "cloe.events.recorded"

// Bus is an in-process publish/subscribe channel for recorded events.
// Publishing is fire-and-forget from the recorder's point of view: a full
// or closed bus never fails event recording.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates an in-process event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			// Buffer publishes so slow subscribers don't stall callers.
			OutputChannelBuffer: 256,
		}, watermill.NopLogger{}),
	}
}

// Publish sends one event to all subscribers.
func (b *Bus) Publish(event *models.UserEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicEvents, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of recorded events. The channel closes when
// ctx is canceled or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicEvents)
}

// DecodeEvent unmarshals a bus message back into a UserEvent.
func DecodeEvent(msg *message.Message) (*models.UserEvent, error) {
	var event models.UserEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &event, nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
