package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "sneuz/internal/errors"
	"sneuz/internal/middleware"
	"sneuz/internal/model"
	"sneuz/internal/repository"
	"sneuz/internal/stats"
)

type SettingsHandler struct {
	settings *repository.SettingsRepository
	users    *repository.UserRepository
}

func NewSettingsHandler(settings *repository.SettingsRepository, users *repository.UserRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings, users: users}
}

type updateSettingsRequest struct {
	TargetBedtime  string `json:"target_bedtime" binding:"required"`
	TargetWakeTime string `json:"target_wake_time" binding:"required"`
	Timezone       string `json:"timezone"`
}

type updateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID := middleware.UserID(c)

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err == repository.ErrNotFound {
		writeError(c, apperrors.NotFound("not_found", "settings not found"))
		return
	}
	if err != nil {
		writeError(c, apperrors.Internal("failed to load settings"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if _, err := stats.ParseClock(req.TargetBedtime); err != nil {
		writeError(c, apperrors.BadRequest("validation_failed", "target_bedtime must be HH:MM"))
		return
	}
	if _, err := stats.ParseClock(req.TargetWakeTime); err != nil {
		writeError(c, apperrors.BadRequest("validation_failed", "target_wake_time must be HH:MM"))
		return
	}

	settings := model.UserSettings{
		UserID:         middleware.UserID(c),
		TargetBedtime:  req.TargetBedtime,
		TargetWakeTime: req.TargetWakeTime,
		Timezone:       req.Timezone,
	}
	if settings.Timezone == "" {
		settings.Timezone = model.DefaultTimezone
	}

	if err := h.settings.Update(c.Request.Context(), &settings); err != nil {
		if err == repository.ErrNotFound {
			writeError(c, apperrors.NotFound("not_found", "settings not found"))
			return
		}
		writeError(c, apperrors.Internal("failed to update settings"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) GetProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err == repository.ErrNotFound {
		writeError(c, apperrors.NotFound("not_found", "profile not found"))
		return
	}
	if err != nil {
		writeError(c, apperrors.Internal("failed to load profile"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	userID := middleware.UserID(c)
	if err := h.users.UpdateFullName(c.Request.Context(), userID, req.FullName); err != nil {
		if err == repository.ErrNotFound {
			writeError(c, apperrors.NotFound("not_found", "profile not found"))
			return
		}
		writeError(c, apperrors.Internal("failed to update profile"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, apperrors.Internal("failed to load profile"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
