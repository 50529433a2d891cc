package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/store"
)

const executionsLimit = 20

// ErrorResponse is the JSON body for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomHandlers serves read-only room diagnostics. Nothing here mutates
// hub state.
type RoomHandlers struct {
	hub   *core.Hub
	store store.Store // may be nil when the audit log is disabled
	log   *zerolog.Logger
}

// NewRoomHandlers builds the diagnostics handlers.
func NewRoomHandlers(hub *core.Hub, st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{hub: hub, store: st, log: logger}
}

// RoomResponse is the diagnostic snapshot of a room.
type RoomResponse struct {
	ID         string   `json:"id"`
	Users      []string `json:"users"`
	Language   string   `json:"language"`
	LastOutput string   `json:"lastOutput,omitempty"`
}

// GetRoom returns the current snapshot of a room.
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	info, err := h.hub.RoomInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}
	if info == nil {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(stdhttp.StatusOK, RoomResponse{
		ID:         info.ID,
		Users:      info.Users,
		Language:   info.Language,
		LastOutput: info.LastOutput,
	})
}

// ExecutionResponse is one row of the execution audit log.
type ExecutionResponse struct {
	ID        int64     `json:"id"`
	Language  string    `json:"language"`
	Version   string    `json:"version"`
	Output    string    `json:"output"`
	OK        bool      `json:"ok"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetExecutions returns the most recent execution audit rows for a room.
func (h *RoomHandlers) GetExecutions(c *gin.Context) {
	if h.store == nil {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "execution history disabled"})
		return
	}

	execs, err := h.store.RecentExecutions(c.Request.Context(), c.Param("id"), executionsLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("query execution history")
		c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "failed to query execution history"})
		return
	}

	out := make([]ExecutionResponse, 0, len(execs))
	for _, e := range execs {
		out = append(out, ExecutionResponse{
			ID:        e.ID,
			Language:  e.Language,
			Version:   e.Version,
			Output:    e.Output,
			OK:        e.OK,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(stdhttp.StatusOK, out)
}
