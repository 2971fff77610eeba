package booking_api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/models"
)

// MockBookingService simulates the service layer with in-memory state.
type MockBookingService struct {
	events   map[string]*models.Event
	bookings map[string]*models.Booking
	failWith error
}

func NewMockBookingService() *MockBookingService {
	return &MockBookingService{
		events:   make(map[string]*models.Event),
		bookings: make(map[string]*models.Booking),
	}
}

func (m *MockBookingService) CreateEvent(name string, totalTickets int) (*models.Event, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if name == "" || totalTickets < 0 {
		return nil, booking.ErrInvalidRequest
	}
	event := &models.Event{
		ID:               uuid.New().String(),
		Name:             name,
		TotalTickets:     totalTickets,
		AvailableTickets: totalTickets,
		CreatedAt:        time.Now().UTC(),
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *MockBookingService) GetEvent(id string) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		return event, nil
	}
	return nil, booking.ErrEventNotFound
}

func (m *MockBookingService) Book(eventID, userID string, ticketCount int) (*models.Booking, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	event, ok := m.events[eventID]
	if !ok {
		return nil, booking.ErrEventNotFound
	}
	if userID == "" || ticketCount < 1 || ticketCount > booking.MaxPerBooking {
		return nil, booking.ErrInvalidRequest
	}
	if ticketCount > event.AvailableTickets {
		return nil, booking.ErrInsufficientTickets
	}
	event.AvailableTickets -= ticketCount
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
	m.bookings[b.ID] = b
	return b, nil
}

func (m *MockBookingService) GetBooking(id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, booking.ErrBookingNotFound
}

func (m *MockBookingService) Cancel(bookingID string) (*models.Booking, error) {
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, booking.ErrAlreadyCancelled
	}
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = time.Now().UTC()
	m.events[b.EventID].AvailableTickets += b.TicketCount
	return b, nil
}

func setupRouter(service booking_api.BookingService) *chi.Mux {
	handler := booking_api.NewHandler(service, nil)
	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEventEndpoint(t *testing.T) {
	mockService := NewMockBookingService()
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodPost, "/events", models.EventRequest{Name: "Concert", TotalTickets: 10})
	assert.Equal(t, http.StatusCreated, w.Code)

	var event models.Event
	require.NoError(t, json.NewDecoder(w.Body).Decode(&event))
	assert.Equal(t, "Concert", event.Name)
	assert.Equal(t, 10, event.AvailableTickets)
	assert.NotEmpty(t, event.ID)
}

func TestCreateEventEndpointBadBody(t *testing.T) {
	router := setupRouter(NewMockBookingService())

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEventEndpointInvalid(t *testing.T) {
	router := setupRouter(NewMockBookingService())

	w := doJSON(t, router, http.MethodPost, "/events", models.EventRequest{Name: "Concert", TotalTickets: -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEventEndpoint(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodGet, "/events/"+event.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/events/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookEndpoint(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/bookings", event.ID),
		models.BookingRequest{UserID: "u1", TicketCount: 1})
	assert.Equal(t, http.StatusCreated, w.Code)

	var b models.Booking
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	assert.Equal(t, "u1", b.UserID)
	assert.Equal(t, models.BookingStatusActive, b.Status)
}

func TestBookEndpointRejections(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 1)
	require.NoError(t, err)
	router := setupRouter(mockService)

	// bad ticket count
	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/bookings", event.ID),
		models.BookingRequest{UserID: "u1", TicketCount: 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown event
	w = doJSON(t, router, http.MethodPost, "/events/unknown/bookings",
		models.BookingRequest{UserID: "u1", TicketCount: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// pool exhausted
	_, err = mockService.Book(event.ID, "u2", 1)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/bookings", event.ID),
		models.BookingRequest{UserID: "u3", TicketCount: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookEndpointUserLimit(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	mockService.failWith = booking.ErrUserLimitExceeded
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/bookings", event.ID),
		models.BookingRequest{UserID: "u1", TicketCount: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookEndpointLockContention(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	mockService.failWith = fmt.Errorf("%w: deadlock victim", booking.ErrLockContention)
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/bookings", event.ID),
		models.BookingRequest{UserID: "u1", TicketCount: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	b, err := mockService.Book(event.ID, "u1", 2)
	require.NoError(t, err)
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodDelete, "/bookings/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var cancelled models.Booking
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cancelled))
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// double cancel is a client error, not a no-op
	w = doJSON(t, router, http.MethodDelete, "/bookings/"+b.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown booking
	w = doJSON(t, router, http.MethodDelete, "/bookings/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBookingEndpoint(t *testing.T) {
	mockService := NewMockBookingService()
	event, err := mockService.CreateEvent("Concert", 10)
	require.NoError(t, err)
	b, err := mockService.Book(event.ID, "u1", 1)
	require.NoError(t, err)
	router := setupRouter(mockService)

	w := doJSON(t, router, http.MethodGet, "/bookings/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/bookings/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(NewMockBookingService())

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
