package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BookingStatus is the booking lifecycle state. A booking starts active and
// can only move to cancelled; cancelled is terminal. Rows are never deleted,
// cancelled bookings stay behind as the audit trail.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	return s == BookingStatusActive || s == BookingStatusCancelled
}

// CanCancel reports whether the status allows the active → cancelled
// transition. It is the only transition in the lifecycle.
func (s BookingStatus) CanCancel() bool {
	return s == BookingStatusActive
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID          string        `bun:"id,pk" json:"id"`
	EventID     string        `bun:"event_id,notnull" json:"event_id"`
	UserID      string        `bun:"user_id,notnull" json:"user_id"`
	TicketCount int           `bun:"ticket_count,notnull" json:"ticket_count"`
	Status      BookingStatus `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

type BookingRequest struct {
	UserID      string `json:"user_id"`
	TicketCount int    `json:"ticket_count"`
}
