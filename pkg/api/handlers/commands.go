package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/droidhub/pkg/api/types"
	"github.com/urmzd/droidhub/pkg/db"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// CommandsHandler serves the command log
type CommandsHandler struct {
	store db.CommandLogStore
}

// NewCommandsHandler creates a new command log handler
func NewCommandsHandler(store db.CommandLogStore) *CommandsHandler {
	return &CommandsHandler{store: store}
}

// History handles GET /devices/:id/commands
// @Summary      Command history
// @Description  Returns the most recent commands run against a device, newest first, with per-outcome totals
// @Tags         shell
// @Produce      json
// @Param        id     path      string  true   "Device serial"
// @Param        limit  query     int     false  "Maximum entries (default 50, max 500)"
// @Success      200    {object}  types.CommandsResponse
// @Failure      400    {object}  types.ErrorResponse  "Invalid limit"
// @Failure      500    {object}  types.ErrorResponse  "Database error"
// @Router       /devices/{id}/commands [get]
func (h *CommandsHandler) History(c *gin.Context) {
	id := c.Param("id")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx := c.Request.Context()
	entries, err := h.store.Recent(ctx, id, limit)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	counts, err := h.store.CountByOutcome(ctx, id)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	out := make([]types.CommandEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, types.CommandEntry{
			ID:         e.ID,
			RequestID:  e.RequestID,
			Command:    e.Command,
			Outcome:    e.Outcome,
			Message:    e.Message,
			ExitCode:   e.ExitCode,
			DurationMS: e.Duration.Milliseconds(),
			CreatedAt:  e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, types.CommandsResponse{
		Device:   id,
		Commands: out,
		Outcomes: counts,
	})
}
