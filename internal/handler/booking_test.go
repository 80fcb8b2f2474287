package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

// fakeManager scripts the booking manager's answers so the HTTP layer
// can be tested without a database.
type fakeManager struct {
	reserveBooking model.Booking
	reserveErr     error
	cancelBooking  model.Booking
	cancelErr      error

	gotEventID   uint64
	gotBookingID uint64
	gotUserID    uint64
	gotTickets   uint32
}

func (f *fakeManager) Reserve(ctx context.Context, eventID, userID uint64, tickets uint32) (model.Booking, error) {
	f.gotEventID, f.gotUserID, f.gotTickets = eventID, userID, tickets
	return f.reserveBooking, f.reserveErr
}

func (f *fakeManager) Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	f.gotBookingID, f.gotUserID = bookingID, userID
	return f.cancelBooking, f.cancelErr
}

func newBookingCtx(t *testing.T, method, target, body string, userID any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestBookingHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("returns 201 with the ledger entry", func(t *testing.T) {
		fm := &fakeManager{reserveBooking: model.Booking{
			ID: 5, Reference: "ref-5", EventID: 3, Tickets: 2,
			TotalAmountCents: 2000, Status: model.BookingConfirmed,
		}}
		h := NewBookingHandler(fm, &repository.BookingRepo{})

		c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"tickets":2}`, float64(7))
		if err := h.Create(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if fm.gotEventID != 3 || fm.gotUserID != 7 || fm.gotTickets != 2 {
			t.Fatalf("wrong service call: event=%d user=%d tickets=%d",
				fm.gotEventID, fm.gotUserID, fm.gotTickets)
		}
		var resp struct {
			Booking bookingView `json:"booking"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Booking.Reference != "ref-5" || resp.Booking.TotalAmountCents != 2000 {
			t.Fatalf("unexpected booking view: %+v", resp.Booking)
		}
	})

	t.Run("maps domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{"insufficient seats", service.ErrInsufficientSeats, http.StatusConflict},
			{"event started", service.ErrEventAlreadyStarted, http.StatusConflict},
			{"event missing", repository.ErrEventNotFound, http.StatusNotFound},
			{"bad ticket count", service.ErrInvalidTicketCount, http.StatusBadRequest},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := NewBookingHandler(&fakeManager{reserveErr: tc.err}, &repository.BookingRepo{})
				c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
					`{"event_id":3,"tickets":2}`, float64(7))
				if err := h.Create(c); err != nil {
					t.Fatalf("handler error: %v", err)
				}
				if rec.Code != tc.code {
					t.Fatalf("expected %d, got %d", tc.code, rec.Code)
				}
			})
		}
	})

	t.Run("rejects missing identity", func(t *testing.T) {
		h := NewBookingHandler(&fakeManager{}, &repository.BookingRepo{})
		c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"tickets":2}`, nil)
		if err := h.Create(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects missing event_id", func(t *testing.T) {
		h := NewBookingHandler(&fakeManager{}, &repository.BookingRepo{})
		c, rec := newBookingCtx(t, http.MethodPost, "/v1/bookings",
			`{"tickets":2}`, float64(7))
		if err := h.Create(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBookingHandler_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("returns 200 with the cancelled entry", func(t *testing.T) {
		fm := &fakeManager{cancelBooking: model.Booking{
			ID: 5, Reference: "ref-5", Status: model.BookingCancelled,
		}}
		h := NewBookingHandler(fm, &repository.BookingRepo{})

		c, rec := newBookingCtx(t, http.MethodDelete, "/v1/bookings/5", "", float64(7))
		c.SetParamNames("id")
		c.SetParamValues("5")
		if err := h.Cancel(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if fm.gotBookingID != 5 || fm.gotUserID != 7 {
			t.Fatalf("wrong service call: booking=%d user=%d", fm.gotBookingID, fm.gotUserID)
		}
	})

	t.Run("maps domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{"not found", repository.ErrBookingNotFound, http.StatusNotFound},
			{"foreign booking", repository.ErrForbidden, http.StatusForbidden},
			{"already cancelled", service.ErrAlreadyCancelled, http.StatusConflict},
			{"too late", service.ErrTooLateToCancel, http.StatusConflict},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := NewBookingHandler(&fakeManager{cancelErr: tc.err}, &repository.BookingRepo{})
				c, rec := newBookingCtx(t, http.MethodDelete, "/v1/bookings/5", "", float64(7))
				c.SetParamNames("id")
				c.SetParamValues("5")
				if err := h.Cancel(c); err != nil {
					t.Fatalf("handler error: %v", err)
				}
				if rec.Code != tc.code {
					t.Fatalf("expected %d, got %d", tc.code, rec.Code)
				}
			})
		}
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		h := NewBookingHandler(&fakeManager{}, &repository.BookingRepo{})
		c, rec := newBookingCtx(t, http.MethodDelete, "/v1/bookings/abc", "", float64(7))
		c.SetParamNames("id")
		c.SetParamValues("abc")
		if err := h.Cancel(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
