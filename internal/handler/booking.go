package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// BookingManager is the slice of the booking service the HTTP layer
// uses.  Tests substitute a fake to exercise status mapping without a
// database.
type BookingManager interface {
	Reserve(ctx context.Context, eventID, userID uint64, tickets uint32) (model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error)
}

// BookingHandler serves the customer booking endpoints.  All methods
// run behind JWT authentication; the booking manager enforces the
// transactional invariants, this layer only translates HTTP.
type BookingHandler struct {
	Svc      BookingManager
	Bookings *repository.BookingRepo
}

func NewBookingHandler(svc BookingManager, bookings *repository.BookingRepo) *BookingHandler {
	if svc == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: bookings}
}

type createBookingReq struct {
	EventID uint64 `json:"event_id"`
	Tickets uint32 `json:"tickets"`
}

type bookingView struct {
	ID               uint64 `json:"id"`
	Reference        string `json:"reference"`
	EventID          uint64 `json:"event_id"`
	Tickets          uint32 `json:"tickets"`
	TotalAmountCents uint64 `json:"total_amount_cents"`
	Status           string `json:"status"`
}

func toBookingView(b model.Booking) bookingView {
	return bookingView{
		ID:               b.ID,
		Reference:        b.Reference,
		EventID:          b.EventID,
		Tickets:          b.Tickets,
		TotalAmountCents: b.TotalAmountCents,
		Status:           b.Status,
	}
}

// Create handles POST /v1/bookings.  It reserves tickets for the
// authenticated user and returns the confirmed ledger entry with 201,
// or the mapped domain error (404 unknown event, 409 sold out or
// already started).
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}

	b, err := h.Svc.Reserve(c.Request().Context(), req.EventID, userID, req.Tickets)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": toBookingView(b)})
}

// ListMy handles GET /v1/my-bookings and returns the authenticated
// user's bookings, newest first, with pagination metadata.
func (h *BookingHandler) ListMy(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := pageParams(c)
	items, total, err := h.Bookings.ListByUser(c.Request().Context(), userID, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
		"page":  page,
	})
}

// Get handles GET /v1/bookings/:id.  Bookings of other users yield
// 403, unknown IDs 404.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) || errors.Is(err, repository.ErrForbidden) {
			return writeBookingError(c, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Cancel handles DELETE /v1/bookings/:id.  On success the seats are
// back in the pool and the ledger entry is CANCELLED; the updated
// entry is returned so clients can show the final state.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Svc.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingView(b)})
}
