package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/dto"
	"github.com/yukikurage/calibrate-api/internal/middleware"
	"github.com/yukikurage/calibrate-api/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{
		users: users,
	}
}

// Me returns the current user's profile with preferences
func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "fetch profile")
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// UpdateMe changes the current user's profile
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkFields(c, req.Check()) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		FullName:      req.FullName.Ptr(),
		ClearFullName: req.FullName.Null,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// DeleteMe deletes the account and everything it owns
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, err, "delete account")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPreferences returns the current user's preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	prefs, err := h.users.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "fetch preferences")
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences merges the given fields into the stored preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkFields(c, req.Check()) {
		return
	}

	prefs, err := h.users.UpdatePreferences(c.Request.Context(), userID, services.UpdatePreferencesInput{
		WorkHoursPerDay:      req.WorkHoursPerDay.Ptr(),
		BufferPercent:        req.BufferPercent.Ptr(),
		CautionThreshold:     req.CautionThreshold.Ptr(),
		Timezone:             req.Timezone.Ptr(),
		NotificationsEnabled: req.NotificationsEnabled.Ptr(),
	})
	if err != nil {
		respondError(c, err, "update preferences")
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// Onboard stores the first preferences and marks the user onboarded
func (h *UserHandler) Onboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.OnboardingRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Onboard(c.Request.Context(), userID, services.OnboardingInput{
		FullName: req.FullName,
		Preferences: services.UpdatePreferencesInput{
			WorkHoursPerDay:      &req.WorkHoursPerDay,
			BufferPercent:        req.BufferPercent,
			CautionThreshold:     req.CautionThreshold,
			Timezone:             req.Timezone,
			NotificationsEnabled: req.NotificationsEnabled,
		},
	})
	if err != nil {
		respondError(c, err, "complete onboarding")
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// Export returns everything stored for the current user
func (h *UserHandler) Export(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	export, err := h.users.Export(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "export data")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calibrate-export.json"`)
	c.JSON(http.StatusOK, dto.ExportDTO{
		ExportedAt:  export.ExportedAt,
		Profile:     dto.ToProfileDTO(export.User),
		Preferences: &export.Preferences,
		Tasks:       export.Tasks,
	})
}
