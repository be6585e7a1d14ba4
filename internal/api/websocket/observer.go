package websocket

import (
	"github.com/mrheathv/mtg-deck-builder/internal/events"
)

// Observer forwards dispatched events to the hub's clients.
type Observer struct {
	hub *Hub
}

// NewObserver creates an observer that publishes every event on hub.
func NewObserver(hub *Hub) *Observer {
	return &Observer{hub: hub}
}

// OnEvent publishes the event. Events raised after the hub stopped are dropped.
func (o *Observer) OnEvent(event events.Event) error {
	o.hub.Publish(event)
	return nil
}

// GetName returns the observer's name.
func (o *Observer) GetName() string {
	return "websocket"
}

// ShouldHandle accepts every event type.
func (o *Observer) ShouldHandle(string) bool {
	return true
}

var _ events.Observer = (*Observer)(nil)
