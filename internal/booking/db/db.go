package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-booking/internal/booking"
	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// CreateEvent → insert new event
func (d *DB) CreateEvent(event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(context.Background())
	return err
}

// GetEventByID → non-locking point read of one event
func (d *DB) GetEventByID(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ---------------- BOOKINGS ----------------

// GetBookingByID → non-locking point read of one booking
func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ---------------- LOCKING PROTOCOL ----------------

// WithEventLock begins a transaction, takes a SELECT ... FOR UPDATE lock on
// the event row and hands the locked row to fn. A nil return from fn commits,
// any error rolls back; the row lock drops with the transaction either way.
// Two calls for the same event serialize on the row lock; calls for different
// events run in parallel. Returns sql.ErrNoRows when the event is absent.
//
// FOR UPDATE is only issued on postgres. The sqlite dialect used by the test
// harness rejects the clause, and its transactions are exclusive anyway.
func (d *DB) WithEventLock(eventID string, fn func(tx booking.TxOps, event *models.Event) error) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, btx bun.Tx) error {
		var event models.Event
		q := btx.NewSelect().
			Model(&event).
			Where("id = ?", eventID)
		if d.Bun.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			return err
		}
		return fn(&Tx{tx: btx}, &event)
	})
}

// Tx exposes the store operations valid inside an event lock. All of its
// reads and writes ride the locked transaction.
type Tx struct {
	tx bun.Tx
}

// UserActiveTicketCount sums ticket_count over the user's active bookings for
// the event.
func (t *Tx) UserActiveTicketCount(eventID, userID string) (int, error) {
	var total int
	err := t.tx.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(ticket_count), 0)").
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Where("status = ?", models.BookingStatusActive).
		Scan(context.Background(), &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetBookingForUpdate re-reads a booking inside the locked transaction.
func (t *Tx) GetBookingForUpdate(id string) (*models.Booking, error) {
	var b models.Booking
	err := t.tx.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateEventAvailability persists the availability counter, the only event
// field booking and cancellation are allowed to touch.
func (t *Tx) UpdateEventAvailability(event *models.Event) error {
	_, err := t.tx.NewUpdate().
		Model(event).
		Column("available_tickets").
		Where("id = ?", event.ID).
		Exec(context.Background())
	return err
}

// InsertBooking → insert new booking row
func (t *Tx) InsertBooking(b *models.Booking) error {
	_, err := t.tx.NewInsert().Model(b).Exec(context.Background())
	return err
}

// UpdateBookingStatus persists a status transition and its updated_at.
func (t *Tx) UpdateBookingStatus(b *models.Booking) error {
	_, err := t.tx.NewUpdate().
		Model(b).
		Column("status", "updated_at").
		Where("id = ?", b.ID).
		Exec(context.Background())
	return err
}
