package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "sneuz/internal/errors"
	"sneuz/internal/middleware"
	"sneuz/internal/model"
	"sneuz/internal/repository"
	"sneuz/internal/stats"
)

const (
	defaultListLimit = 60
	maxListLimit     = 200
)

// SessionHandler exposes the sleep_sessions table as scoped CRUD. Lifecycle
// decisions (adopt vs create, reconciliation) live in the client core; this
// layer only enforces ownership and basic validity.
type SessionHandler struct {
	sessions *repository.SessionRepository
}

func NewSessionHandler(sessions *repository.SessionRepository) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time"`
	Source    string     `json:"source"`
}

type updateSessionRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func (h *SessionHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	limit := defaultListLimit
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	sessions, err := h.sessions.SelectRecent(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, apperrors.Internal("failed to list sessions"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Open(c *gin.Context) {
	userID := middleware.UserID(c)

	session, err := h.sessions.SelectOpenSession(c.Request.Context(), userID)
	if err != nil {
		writeError(c, apperrors.Internal("failed to query open session"))
		return
	}
	if session == nil {
		writeError(c, apperrors.NotFound("not_found", "no open session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		writeError(c, apperrors.BadRequest("validation_failed", "end_time must not be before start_time"))
		return
	}

	userID := middleware.UserID(c)
	now := time.Now().UTC()

	session := model.SleepSession{
		ID:        req.ID,
		UserID:    userID,
		StartTime: req.StartTime.UTC(),
		Source:    req.Source,
		UpdatedAt: now,
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Source == "" {
		session.Source = model.SourceManual
	}
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		session.EndTime = &end
	}

	if err := h.sessions.Insert(c.Request.Context(), &session); err != nil {
		switch {
		case strings.Contains(err.Error(), "sleep_sessions.user_id"):
			// Partial unique index: this user already has an open session.
			writeError(c, apperrors.Conflict("open_session_exists", "an open session already exists"))
		case strings.Contains(err.Error(), "sleep_sessions.id"):
			writeError(c, apperrors.Conflict("duplicate_id", "session id already exists"))
		default:
			writeError(c, apperrors.Internal("failed to create session"))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.StartTime == nil && req.EndTime == nil {
		writeError(c, apperrors.BadRequest("validation_failed", "nothing to update"))
		return
	}

	existing, apiErr := h.ownedSession(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	// Validate against the merged view of the row.
	newStart := existing.StartTime
	if req.StartTime != nil {
		newStart = req.StartTime.UTC()
	}
	newEnd := existing.EndTime
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		newEnd = &end
	}
	if newEnd != nil && newEnd.Before(newStart) {
		writeError(c, apperrors.BadRequest("validation_failed", "end_time must not be before start_time"))
		return
	}

	update := model.SessionUpdate{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		UpdatedAt: time.Now().UTC(),
	}
	updated, err := h.sessions.Update(c.Request.Context(), existing.ID, update)
	if err != nil {
		writeError(c, apperrors.Internal("failed to update session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": updated})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	existing, apiErr := h.ownedSession(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), existing.ID); err != nil {
		writeError(c, apperrors.Internal("failed to delete session"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Stats(c *gin.Context) {
	userID := middleware.UserID(c)

	sessions, err := h.sessions.SelectCompleted(c.Request.Context(), userID)
	if err != nil {
		writeError(c, apperrors.Internal("failed to load sessions"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats.Summarize(sessions)})
}

// ownedSession loads the :id session and hides other users' rows behind a 404.
func (h *SessionHandler) ownedSession(c *gin.Context) (*model.SleepSession, *apperrors.APIError) {
	userID := middleware.UserID(c)
	id := c.Param("id")

	session, err := h.sessions.GetByID(c.Request.Context(), id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("not_found", "session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load session")
	}
	if session.UserID != userID {
		return nil, apperrors.NotFound("not_found", "session not found")
	}
	return session, nil
}
