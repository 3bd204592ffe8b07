package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventKind string

const (
	TripUpdated EventKind = "trip.updated"
	TripDeleted EventKind = "trip.deleted"
)

// TripChangedMessage tells consumers that a trip changed. It carries only the
// id: the worker reloads the trip and recomputes its breakdown.
type TripChangedMessage struct {
	TripID    string    `json:"trip_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTripChangedMessage(tripID string, kind EventKind) *TripChangedMessage {
	return &TripChangedMessage{
		TripID:    tripID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TripChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TripChangedMessageFromJSON decodes and validates a message body.
func TripChangedMessageFromJSON(data []byte) (*TripChangedMessage, error) {
	var msg TripChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TripID == "" {
		return nil, fmt.Errorf("message without trip_id")
	}
	switch msg.Kind {
	case TripUpdated, TripDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
