package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "fee-1",
		"amount": "720000.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeRecomputed, EntityTypeTuitionFee, payload)
	after := time.Now()

	assert.Equal(t, "tuition_fee.recomputed", evt.Type)
	assert.Equal(t, EntityTypeTuitionFee, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType string
		entity   EntityType
	}{
		{"attendance created", AttendanceCreated(nil), "attendance.created", EntityTypeAttendance},
		{"attendance updated", AttendanceUpdated(nil), "attendance.updated", EntityTypeAttendance},
		{"fee recomputed", TuitionFeeRecomputed(nil), "tuition_fee.recomputed", EntityTypeTuitionFee},
		{"payment created", PaymentCreated(nil), "payment.created", EntityTypePayment},
		{"payroll created", TeacherPaymentCreated(nil), "teacher_payment.created", EntityTypeTeacherPayment},
		{"payroll updated", TeacherPaymentUpdated(nil), "teacher_payment.updated", EntityTypeTeacherPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.event.Type)
			assert.Equal(t, tt.entity, tt.event.Entity)
		})
	}
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	evt := Event{
		Type:      "payment.created",
		Entity:    EntityTypePayment,
		Payload:   map[string]interface{}{"paidAmount": "300000.00"},
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "payment.created", decoded["type"])
	assert.Equal(t, "payment", decoded["entity"])
	assert.Equal(t, "2026-03-15T10:30:00Z", decoded["timestamp"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "300000.00", payload["paidAmount"])
}
