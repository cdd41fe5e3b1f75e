// Package control is the loopback HTTP API that presentation layers (a
// tray app, the CLI) use to query the scheduler and toggle night mode.
package control

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/nighttime/internal/nightmode"
	"github.com/goodtune/nighttime/internal/storage"
	"github.com/rs/zerolog"
)

// Scheduler is the part of nightmode.Scheduler the API drives.
type Scheduler interface {
	Status(ctx context.Context) (nightmode.Status, error)
	Toggle(ctx context.Context) (bool, error)
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Title                string    `json:"title"`
	Window               string    `json:"window"`
	Night                bool      `json:"night"`
	Mode                 *bool     `json:"mode"` // null when the display could not be read
	LastApplied          bool      `json:"last_applied"`
	RestoreMode          bool      `json:"restore_mode"`
	NextBoundary         time.Time `json:"next_boundary"`
	UntilBoundarySeconds int64     `json:"until_boundary_seconds"`
	Debug                bool      `json:"debug"`
	Error                string    `json:"error,omitempty"`
}

// ToggleResponse is the body of POST /api/toggle.
type ToggleResponse struct {
	Mode bool `json:"mode"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Transitions []storage.Transition `json:"transitions"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Options describes the running instance for status responses.
type Options struct {
	Title string
	Debug bool

	// History serves GET /api/history; nil when journaling is disabled.
	History storage.TransitionStore
}

// NewHandler returns the API routes, ready to mount at /api/.
func NewHandler(scheduler Scheduler, opts Options, logger zerolog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	h := &handler{
		scheduler: scheduler,
		opts:      opts,
		logger:    logger.With().Str("component", "control").Logger(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(h.logger))

	api := router.Group("/api")
	api.GET("/status", h.status)
	api.POST("/toggle", h.toggle)
	api.GET("/history", h.history)

	return router
}

type handler struct {
	scheduler Scheduler
	opts      Options
	logger    zerolog.Logger
}

func (h *handler) status(ctx *gin.Context) {
	status, err := h.scheduler.Status(ctx.Request.Context())

	resp := StatusResponse{
		Title:                h.opts.Title,
		Window:               status.Window.String(),
		Night:                status.Night,
		LastApplied:          status.LastApplied,
		RestoreMode:          status.RestoreMode,
		NextBoundary:         status.NextBoundary,
		UntilBoundarySeconds: int64(status.UntilBoundary / time.Second),
		Debug:                h.opts.Debug,
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("Status requested but display mode is unreadable")
		resp.Error = err.Error()
	} else {
		mode := status.Mode
		resp.Mode = &mode
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *handler) toggle(ctx *gin.Context) {
	mode, err := h.scheduler.Toggle(ctx.Request.Context())
	if errors.Is(err, nightmode.ErrStopped) {
		ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "stopped",
			Message: "nighttime is shutting down",
		})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Toggle failed")
		ctx.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "display_error",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, ToggleResponse{Mode: mode})
}

func (h *handler) history(ctx *gin.Context) {
	if h.opts.History == nil {
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "disabled",
			Message: "journaling is disabled",
		})
		return
	}

	filter, err := parseHistoryQuery(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_query",
			Message: err.Error(),
		})
		return
	}

	transitions, err := h.opts.History.List(ctx.Request.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list transitions")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_error",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, HistoryResponse{Transitions: transitions})
}

func parseHistoryQuery(ctx *gin.Context) (storage.TransitionFilter, error) {
	var filter storage.TransitionFilter
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	if raw := ctx.Query("source"); raw != "" {
		source, err := storage.ParseSource(raw)
		if err != nil {
			return filter, err
		}
		filter.Source = source
	}
	if raw := ctx.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid since %q: %w", raw, err)
		}
		filter.Since = &since
	}
	return filter, nil
}

func loggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.Debug().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Control request")
	}
}
