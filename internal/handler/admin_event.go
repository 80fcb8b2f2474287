package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// CapacityManager is the slice of the booking service the admin layer
// uses for seat-capacity changes.  Resizes must go through the
// transaction manager so the available counter is recomputed under
// the same row lock a concurrent reservation would take.
type CapacityManager interface {
	UpdateCapacity(ctx context.Context, eventID uint64, newTotalSeats uint32) (model.Event, error)
}

// AdminHandler serves event management and reporting for ADMIN users.
type AdminHandler struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
	Svc      CapacityManager
	Stats    *repository.StatsRepo
}

func NewAdminHandler(events *repository.EventRepo, bookings *repository.BookingRepo, svc CapacityManager, stats *repository.StatsRepo) *AdminHandler {
	if events == nil || bookings == nil || svc == nil || stats == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Events: events, Bookings: bookings, Svc: svc, Stats: stats}
}

type eventReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartsAt    string  `json:"starts_at"` // RFC 3339
	Venue       string  `json:"venue"`
	Category    string  `json:"category"`
	PriceCents  uint32  `json:"price_cents"`
	TotalSeats  uint32  `json:"total_seats"` // optional on update; resize runs through the capacity guard
	ImageURL    *string `json:"image_url"`
}

func (r *eventReq) validate() (time.Time, string) {
	if strings.TrimSpace(r.Title) == "" {
		return time.Time{}, "title is required"
	}
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return time.Time{}, "starts_at must be RFC 3339"
	}
	if strings.TrimSpace(r.Venue) == "" {
		return time.Time{}, "venue is required"
	}
	return startsAt.UTC(), ""
}

// CreateEvent handles POST /v1/admin/events.  New events open with
// the full capacity available.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	startsAt, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.TotalSeats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be at least 1"})
	}

	ev := model.Event{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		StartsAt:       startsAt,
		Venue:          strings.TrimSpace(req.Venue),
		Category:       strings.TrimSpace(req.Category),
		PriceCents:     req.PriceCents,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		ImageURL:       req.ImageURL,
		CreatedBy:      adminID,
	}
	if err := h.Events.Create(c.Request().Context(), &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toEventView(ev)})
}

// UpdateEvent handles PUT /v1/admin/events/:id.  Descriptive fields
// are written directly; a total_seats value in the body is routed
// through the booking manager so the availability recompute happens
// under the event row lock, never as a plain column write.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	startsAt, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ev := model.Event{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartsAt:    startsAt,
		Venue:       strings.TrimSpace(req.Venue),
		Category:    strings.TrimSpace(req.Category),
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
	}
	if err := h.Events.UpdateDetails(c.Request().Context(), &ev); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	if req.TotalSeats > 0 && req.TotalSeats != ev.TotalSeats {
		resized, err := h.Svc.UpdateCapacity(c.Request().Context(), id, req.TotalSeats)
		if err != nil {
			return writeBookingError(c, err)
		}
		ev = resized
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventView(ev)})
}

// GetEvent handles GET /v1/admin/events/:id.  Unlike the public
// detail it includes the demand figure: tickets held by confirmed
// bookings.
func (h *AdminHandler) GetEvent(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	booked, err := h.Bookings.CountActiveByEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":           toEventView(ev),
		"booked_tickets": booked,
	})
}

type capacityReq struct {
	TotalSeats uint32 `json:"total_seats"`
}

// UpdateCapacity handles PATCH /v1/admin/events/:id/capacity.  The
// booking manager recomputes availability under the event row lock;
// shrinking below the booked count floors availability at zero.
func (h *AdminHandler) UpdateCapacity(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req capacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ev, err := h.Svc.UpdateCapacity(c.Request().Context(), id, req.TotalSeats)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventView(ev)})
}

// DeleteEvent handles DELETE /v1/admin/events/:id.  Events with
// confirmed bookings cannot be removed; the ledger keeps pointing at
// them.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has confirmed bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
