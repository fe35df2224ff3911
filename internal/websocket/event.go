package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated    EventType = "created"
	EventTypeUpdated    EventType = "updated"
	EventTypeRecomputed EventType = "recomputed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeAttendance     EntityType = "attendance"
	EntityTypeTuitionFee     EntityType = "tuition_fee"
	EntityTypePayment        EntityType = "payment"
	EntityTypeTeacherPayment EntityType = "teacher_payment"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AttendanceCreated creates an attendance.created event
func AttendanceCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAttendance, payload)
}

// AttendanceUpdated creates an attendance.updated event
func AttendanceUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAttendance, payload)
}

// TuitionFeeRecomputed creates a tuition_fee.recomputed event
func TuitionFeeRecomputed(payload interface{}) Event {
	return NewEvent(EventTypeRecomputed, EntityTypeTuitionFee, payload)
}

// PaymentCreated creates a payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePayment, payload)
}

// TeacherPaymentCreated creates a teacher_payment.created event
func TeacherPaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTeacherPayment, payload)
}

// TeacherPaymentUpdated creates a teacher_payment.updated event
func TeacherPaymentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTeacherPayment, payload)
}
