package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrClassNotFound           = errors.New("class not found")
	ErrClassNotScheduledToday  = errors.New("class is not scheduled on this weekday")
	ErrDateOutsideClassPeriod  = errors.New("date is outside the class period")
	ErrClassUnitPriceInvalid   = errors.New("class unit price must be positive")
	ErrClassDateRangeInvalid   = errors.New("class end date must not be before start date")
	ErrClassNoScheduledWeekday = errors.New("class must have at least one scheduled weekday")
)

// ClassStatus marks whether a class is still accepting sessions.
type ClassStatus string

const (
	ClassStatusOpen   ClassStatus = "OPEN"
	ClassStatusClosed ClassStatus = "CLOSED"
)

// Class is the billing engine's view of a class: pricing, the active date
// range, the weekday schedule, and the current roster. Class CRUD is owned by
// the class directory; billing only reads.
type Class struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	ScheduledWeekdays  []time.Weekday  `json:"scheduledWeekdays"`
	Status             ClassStatus     `json:"status"`
	EnrolledStudentIDs []uuid.UUID     `json:"enrolledStudentIds"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (c *Class) Validate() error {
	if c.UnitPrice.LessThanOrEqual(decimal.Zero) {
		return ErrClassUnitPriceInvalid
	}
	if c.EndDate.Before(c.StartDate) {
		return ErrClassDateRangeInvalid
	}
	if len(c.ScheduledWeekdays) == 0 {
		return ErrClassNoScheduledWeekday
	}
	return nil
}

// InPeriod reports whether the given calendar day falls within the class's
// active date range (inclusive on both ends).
func (c *Class) InPeriod(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// ScheduledOn reports whether the class meets on the given day's weekday.
func (c *Class) ScheduledOn(day time.Time) bool {
	for _, wd := range c.ScheduledWeekdays {
		if wd == day.Weekday() {
			return true
		}
	}
	return false
}

// SessionDayError validates that attendance may be taken for the class on the
// given day. Returns ErrDateOutsideClassPeriod or ErrClassNotScheduledToday,
// or nil when the day is a valid session day.
func (c *Class) SessionDayError(day time.Time) error {
	if !c.InPeriod(day) {
		return ErrDateOutsideClassPeriod
	}
	if !c.ScheduledOn(day) {
		return ErrClassNotScheduledToday
	}
	return nil
}

// ClassRepository is the narrow contract the billing engine needs from the
// class directory.
type ClassRepository interface {
	GetByID(id uuid.UUID) (*Class, error)
}
