package booking

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

const (
	// MaxPerBooking caps a single book call.
	MaxPerBooking = 2
	// MaxPerUserPerEvent caps a user's active tickets on one event,
	// cumulative across bookings.
	MaxPerUserPerEvent = 2
)

// TxOps is the set of store operations available inside an event lock. Every
// read through it observes the snapshot pinned by the locked transaction.
type TxOps interface {
	UserActiveTicketCount(eventID, userID string) (int, error)
	GetBookingForUpdate(id string) (*models.Booking, error)
	UpdateEventAvailability(event *models.Event) error
	InsertBooking(b *models.Booking) error
	UpdateBookingStatus(b *models.Booking) error
}

type DBLayer interface {
	CreateEvent(event *models.Event) error
	GetEventByID(id string) (*models.Event, error)
	GetBookingByID(id string) (*models.Booking, error)
	// WithEventLock runs fn inside one transaction holding an exclusive
	// row lock on the event. fn returning nil commits; any error rolls
	// back. This is the only serialization point in the service.
	WithEventLock(eventID string, fn func(tx TxOps, event *models.Event) error) error
}

type KafkaPublisher interface {
	PublishEventCreated(event models.Event) error
	PublishBookingCreated(b models.Booking) error
	PublishBookingCancelled(b models.Booking) error
}

type Service struct {
	DB     DBLayer
	Kafka  KafkaPublisher
	Logger *logger.Logger
}

func NewService(db DBLayer, kafka KafkaPublisher, log *logger.Logger) *Service {
	return &Service{DB: db, Kafka: kafka, Logger: log}
}

// CreateEvent initializes an event with its full ticket pool available.
// No locking: there is no prior state to race against.
func (s *Service) CreateEvent(name string, totalTickets int) (*models.Event, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidRequest)
	}
	if totalTickets < 0 {
		return nil, fmt.Errorf("%w: total_tickets must not be negative", ErrInvalidRequest)
	}

	event := &models.Event{
		ID:               uuid.New().String(),
		Name:             name,
		TotalTickets:     totalTickets,
		AvailableTickets: totalTickets,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.DB.CreateEvent(event); err != nil {
		return nil, s.storeError("create event", err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(*event); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("event created publish failed: %v", err))
		}
	}
	return event, nil
}

func (s *Service) GetEvent(id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, s.storeError("get event", err)
	}
	return event, nil
}

func (s *Service) GetBooking(id string) (*models.Booking, error) {
	b, err := s.DB.GetBookingByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, s.storeError("get booking", err)
	}
	return b, nil
}

// Book reserves ticketCount tickets on the event for the user. The
// availability check, the per-user cap check and both writes happen under one
// event lock: the cap requires reading the user's other bookings, so an
// atomic decrement on the counter alone would not be safe.
func (s *Service) Book(eventID, userID string, ticketCount int) (*models.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id must not be empty", ErrInvalidRequest)
	}
	if ticketCount < 1 || ticketCount > MaxPerBooking {
		return nil, fmt.Errorf("%w: ticket_count must be between 1 and %d", ErrInvalidRequest, MaxPerBooking)
	}

	var created *models.Booking
	err := s.DB.WithEventLock(eventID, func(tx TxOps, event *models.Event) error {
		prior, err := tx.UserActiveTicketCount(eventID, userID)
		if err != nil {
			return fmt.Errorf("count user bookings: %w", err)
		}
		if prior+ticketCount > MaxPerUserPerEvent {
			return fmt.Errorf("%w: user holds %d of %d tickets for this event",
				ErrUserLimitExceeded, prior, MaxPerUserPerEvent)
		}
		if ticketCount > event.AvailableTickets {
			return fmt.Errorf("%w: requested %d, available %d",
				ErrInsufficientTickets, ticketCount, event.AvailableTickets)
		}

		event.AvailableTickets -= ticketCount
		if err := tx.UpdateEventAvailability(event); err != nil {
			return fmt.Errorf("update availability: %w", err)
		}

		now := time.Now().UTC()
		b := &models.Booking{
			ID:          uuid.New().String(),
			EventID:     eventID,
			UserID:      userID,
			TicketCount: ticketCount,
			Status:      models.BookingStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertBooking(b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		created = b
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, s.storeError("book", err)
	}

	s.Logger.Info("BOOKING", fmt.Sprintf("booked %d ticket(s) on event %s for user %s (booking %s)",
		ticketCount, eventID, userID, created.ID))

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCreated(*created); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("booking created publish failed: %v", err))
		}
	}
	return created, nil
}

// Cancel flips an active booking to cancelled and returns its tickets to the
// event pool. Both mutations run under the event lock so a concurrent book
// never sees availability mid-update. The booking is re-read inside the lock:
// the unlocked lookup only resolves the event id and can race another cancel.
func (s *Service) Cancel(bookingID string) (*models.Booking, error) {
	ref, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, s.storeError("cancel", err)
	}

	var cancelled *models.Booking
	err = s.DB.WithEventLock(ref.EventID, func(tx TxOps, event *models.Event) error {
		b, err := tx.GetBookingForUpdate(bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if !b.Status.CanCancel() {
			return ErrAlreadyCancelled
		}

		event.AvailableTickets += b.TicketCount
		if err := tx.UpdateEventAvailability(event); err != nil {
			return fmt.Errorf("update availability: %w", err)
		}

		b.Status = models.BookingStatusCancelled
		b.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateBookingStatus(b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		cancelled = b
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// booking row exists but its event is gone; treat as the
			// not-found class rather than a rejected request
			return nil, ErrEventNotFound
		}
		return nil, s.storeError("cancel", err)
	}

	s.Logger.Info("BOOKING", fmt.Sprintf("cancelled booking %s, returned %d ticket(s) to event %s",
		cancelled.ID, cancelled.TicketCount, cancelled.EventID))

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCancelled(*cancelled); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("booking cancelled publish failed: %v", err))
		}
	}
	return cancelled, nil
}

// storeError passes business failures through untouched and tags transient
// postgres aborts as retryable.
func (s *Service) storeError(op string, err error) error {
	for _, sentinel := range []error{
		ErrInvalidRequest, ErrEventNotFound, ErrBookingNotFound,
		ErrInsufficientTickets, ErrUserLimitExceeded, ErrAlreadyCancelled,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if isTransientPgError(err) {
		return fmt.Errorf("%w: %s: %v", ErrLockContention, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
