package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// PublicHandler serves the unauthenticated event catalogue.
type PublicHandler struct {
	Events *repository.EventRepo
}

// eventView is the JSON shape of an event in catalogue responses.
// Models stay tag-free; handlers own the wire format.
type eventView struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"starts_at"`
	Venue          string    `json:"venue"`
	Category       string    `json:"category"`
	PriceCents     uint32    `json:"price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	ImageURL       *string   `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toEventView(e model.Event) eventView {
	return eventView{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		StartsAt:       e.StartsAt,
		Venue:          e.Venue,
		Category:       e.Category,
		PriceCents:     e.PriceCents,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		ImageURL:       e.ImageURL,
		CreatedAt:      e.CreatedAt,
	}
}

func NewPublicHandler(events *repository.EventRepo) *PublicHandler {
	if events == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Events: events}
}

// ListEvents handles GET /v1/events.  Supported query parameters:
// category (exact match), search (title substring), upcoming
// ("false" includes past events; anything else restricts to events
// that have not started), page and limit.  Responses carry the items
// plus pagination metadata.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	page, limit := pageParams(c)
	f := repository.ListFilter{
		Category:     strings.TrimSpace(c.QueryParam("category")),
		Search:       c.QueryParam("search"),
		UpcomingOnly: c.QueryParam("upcoming") != "false",
		Page:         page,
		Limit:        limit,
	}

	events, total, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	items := make([]eventView, 0, len(events))
	for _, e := range events {
		items = append(items, toEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
		"page":  f.Page,
	})
}

// GetEvent handles GET /v1/events/:id and returns full event details
// including the live seat availability.
func (h *PublicHandler) GetEvent(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"item": toEventView(ev)})
}
