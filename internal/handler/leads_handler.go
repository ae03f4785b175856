package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/entity"
)

// LeadLister reads stored leads.
type LeadLister interface {
	ListLeads(ctx context.Context, filter dto.ListFilter) ([]entity.Lead, error)
}

// LeadsHandler exposes the stored leads.
type LeadsHandler struct {
	service LeadLister
}

// NewLeadsHandler creates a new handler instance.
func NewLeadsHandler(service LeadLister) *LeadsHandler {
	return &LeadsHandler{service: service}
}

// List handles GET /leads requests. Clients only see leads whose detail
// panel was confirmed to belong to the listing.
func (h *LeadsHandler) List(c echo.Context) error {
	return h.listInternal(c, true)
}

// ListAdmin handles GET /admin/leads requests.
func (h *LeadsHandler) ListAdmin(c echo.Context) error {
	return h.listInternal(c, false)
}

func (h *LeadsHandler) listInternal(c echo.Context, matchedOnly bool) error {
	filter := dto.ListFilter{
		Q:             strings.TrimSpace(c.QueryParam("q")),
		Keyword:       strings.TrimSpace(c.QueryParam("keyword")),
		Location:      strings.TrimSpace(c.QueryParam("location")),
		WebsiteStatus: strings.TrimSpace(c.QueryParam("website_status")),
		PhoneStatus:   strings.TrimSpace(c.QueryParam("phone_status")),
		Sort:          strings.TrimSpace(c.QueryParam("sort")),
		Page:          parseIntDefault(c.QueryParam("page"), 1),
		PerPage:       parseIntDefault(c.QueryParam("per_page"), 20),
		MatchedOnly:   matchedOnly,
	}

	if minRatingStr := strings.TrimSpace(c.QueryParam("min_rating")); minRatingStr != "" {
		if minRating, err := strconv.ParseFloat(minRatingStr, 64); err == nil {
			filter.MinRating = &minRating
		}
	}

	if !matchedOnly {
		if raw := strings.TrimSpace(c.QueryParam("matched_only")); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return Error(c, http.StatusBadRequest, "invalid matched_only")
			}
			filter.MatchedOnly = parsed
		}
	}

	if runIDParam := strings.TrimSpace(c.QueryParam("run_id")); runIDParam != "" {
		parsed, err := uuid.Parse(runIDParam)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid run_id")
		}
		filter.RunID = &parsed
	}

	leads, err := h.service.ListLeads(c.Request().Context(), filter)
	if err != nil {
		return ServiceError(c, err, "failed to list leads")
	}

	return Success(c, http.StatusOK, "leads retrieved", leads)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
