package api

import (
	"errors"
	"net/http"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/pathfinding"
	"github.com/charmbracelet/log"
	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrInvalidRadius),
		errors.Is(err, building.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, building.ErrInvalidPlacement):
		return http.StatusConflict
	case errors.Is(err, building.ErrNotFound),
		errors.Is(err, chunk.ErrChunkNotFound),
		errors.Is(err, pathfinding.ErrNoPath):
		return http.StatusNotFound
	case errors.Is(err, pathfinding.ErrBlocked):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// renderCommandError renders a world command failure. Client errors carry the domain
// message; server errors are logged and hidden.
func (h *Handler) renderCommandError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status < 500 {
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message, Code: status, Message: err.Error()})
		return
	}
	h.renderError(w, r, status, message, err)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    status,
		Message: message,
	}

	if err != nil {
		log.Error("API error", "error", err, "message", message, "status", status)
		if status >= 500 {
			errorResponse.Error = "Internal server error"
		}
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse)
}
