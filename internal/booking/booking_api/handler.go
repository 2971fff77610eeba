package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// BookingService is the slice of the service layer the handlers need.
type BookingService interface {
	CreateEvent(name string, totalTickets int) (*models.Event, error)
	GetEvent(id string) (*models.Event, error)
	Book(eventID, userID string, ticketCount int) (*models.Booking, error)
	GetBooking(id string) (*models.Booking, error)
	Cancel(bookingID string) (*models.Booking, error)
}

type Handler struct {
	Service BookingService
	Logger  *logger.Logger
}

func NewHandler(service BookingService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Routes mounts the API on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/{eventID}", h.GetEvent)
		r.Post("/{eventID}/bookings", h.BookTickets)
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Get("/{bookingID}", h.GetBooking)
		r.Delete("/{bookingID}", h.CancelBooking)
	})
	r.Get("/health", h.Health)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.Service.CreateEvent(req.Name, req.TotalTickets)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		h.writeServiceError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: created event %s with %d tickets", event.ID, event.TotalTickets))

	h.writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.Service.GetEvent(eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handler) BookTickets(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookTickets: failed to decode request body: %v", err))
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("BookTickets: event=%s user=%s count=%d", eventID, req.UserID, req.TicketCount))

	b, err := h.Service.Book(eventID, req.UserID, req.TicketCount)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookTickets: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	b, err := h.Service.GetBooking(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingID=%s", bookingID))

	b, err := h.Service.Cancel(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// absent entities → 404, rejected requests → 400, retryable lock contention
// → 409, anything else → 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrEventNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrInvalidRequest),
		errors.Is(err, booking.ErrInsufficientTickets),
		errors.Is(err, booking.ErrUserLimitExceeded),
		errors.Is(err, booking.ErrAlreadyCancelled):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case booking.IsRetryable(err):
		h.writeError(w, "Temporary conflict, please retry", http.StatusConflict)
	default:
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, detail string, status int) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}
