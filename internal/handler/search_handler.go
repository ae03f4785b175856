package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/leads-extractor/internal/dto"
	middleware "github.com/octobees/leads-extractor/internal/middleware"
	"github.com/octobees/leads-extractor/internal/scraper"
	"github.com/octobees/leads-extractor/internal/service"
)

// Stream event names.
const (
	eventProgress = "progress"
	eventDone     = "done"
	eventError    = "error"
)

// progressBuffer absorbs bursts of progress events while the client is slow.
const progressBuffer = 32

// Searcher runs one extraction session.
type Searcher interface {
	Search(ctx context.Context, in service.SearchInput) (*service.SearchOutput, error)
}

// SearchHandler exposes the extraction engine over HTTP.
type SearchHandler struct {
	searcher Searcher
	log      *zap.Logger
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(searcher Searcher, log *zap.Logger) *SearchHandler {
	if log == nil {
		log = zap.L()
	}
	return &SearchHandler{searcher: searcher, log: log}
}

// Search handles POST /search and answers once the session has finished.
func (h *SearchHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.SearchResponse{Error: "invalid payload", Data: []scraper.Lead{}})
	}

	in := searchInput(req, middleware.RequestIDFromContext(c))
	out, err := h.searcher.Search(c.Request().Context(), in)
	switch {
	case service.IsValidation(err):
		return c.JSON(http.StatusBadRequest, dto.SearchResponse{Error: err.Error(), Data: []scraper.Lead{}})
	case err != nil:
		h.log.Error("search: session failed", zap.String("keyword", in.Keyword), zap.String("location", in.Location), zap.Error(err))
		resp := searchResponse(out, err)
		return c.JSON(http.StatusInternalServerError, resp)
	}

	return c.JSON(http.StatusOK, searchResponse(out, nil))
}

// Stream handles GET /search/stream. Progress events are pushed while the
// session runs, followed by a single done or error event.
func (h *SearchHandler) Stream(c echo.Context) error {
	req := dto.SearchRequest{
		Category: c.QueryParam("category"),
		Country:  c.QueryParam("country"),
		State:    c.QueryParam("state"),
		City:     c.QueryParam("city"),
		Area:     c.QueryParam("area"),
	}
	if raw := strings.TrimSpace(c.QueryParam("processedIds")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ProcessedIDs); err != nil {
			h.log.Warn("search: ignoring malformed processedIds", zap.Error(err))
			req.ProcessedIDs = nil
		}
	}

	in := searchInput(req, middleware.RequestIDFromContext(c))
	if err := service.ValidateSearch(in.Keyword, in.Location); err != nil {
		return c.JSON(http.StatusBadRequest, dto.SearchResponse{Error: err.Error(), Data: []scraper.Lead{}})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events := make(chan scraper.Event, progressBuffer)
	g, gctx := errgroup.WithContext(c.Request().Context())

	var (
		out    *service.SearchOutput
		runErr error
	)
	g.Go(func() error {
		defer close(events)
		in.OnProgress = scraper.ChannelSink(gctx, events)
		out, runErr = h.searcher.Search(gctx, in)
		return nil
	})
	g.Go(func() error {
		for ev := range events {
			if err := writeEvent(res, eventProgress, ev); err != nil {
				return fmt.Errorf("write progress event: %w", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		h.log.Info("search: stream client went away", zap.String("keyword", in.Keyword), zap.Error(err))
		return nil
	}

	if runErr != nil {
		h.log.Error("search: session failed", zap.String("keyword", in.Keyword), zap.String("location", in.Location), zap.Error(runErr))
		if err := writeEvent(res, eventError, searchResponse(out, runErr)); err != nil {
			h.log.Info("search: failed to deliver error event", zap.Error(err))
		}
		return nil
	}

	if err := writeEvent(res, eventDone, searchResponse(out, nil)); err != nil {
		h.log.Info("search: failed to deliver done event", zap.Error(err))
	}
	return nil
}

func searchInput(req dto.SearchRequest, requestID string) service.SearchInput {
	return service.SearchInput{
		Keyword:   strings.TrimSpace(req.Category),
		Location:  service.BuildLocation(req.Area, req.City, req.State, req.Country),
		SkipIDs:   req.ProcessedIDs,
		RequestID: requestID,
	}
}

func searchResponse(out *service.SearchOutput, err error) dto.SearchResponse {
	resp := dto.SearchResponse{Success: err == nil, Data: []scraper.Lead{}}
	if err != nil {
		resp.Error = publicError(err)
	}
	if out == nil || out.Result == nil {
		return resp
	}
	resp.RunID = out.RunID.String()
	if out.Result.Leads != nil {
		resp.Data = out.Result.Leads
	}
	resp.Count = len(resp.Data)
	resp.Meta = out.Result.Meta
	return resp
}

// publicError maps session failures to messages safe to show callers.
func publicError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "search timed out"
	case errors.Is(err, context.Canceled):
		return "search cancelled"
	case errors.Is(err, scraper.ErrBrowserUnavailable):
		return "browser unavailable"
	case errors.Is(err, scraper.ErrNavigation):
		return "failed to open search results"
	case errors.Is(err, scraper.ErrListUnavailable):
		return "results list unavailable"
	}
	return "search failed"
}

func writeEvent(res *echo.Response, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
