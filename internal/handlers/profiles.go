package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"semnotes/internal/contextutil"
	"semnotes/internal/notes"
)

// ProfilesHandler handles profile CRUD requests.
type ProfilesHandler struct {
	service *notes.Service
}

// NewProfilesHandler creates a new ProfilesHandler.
func NewProfilesHandler(service *notes.Service) *ProfilesHandler {
	return &ProfilesHandler{service: service}
}

// CreateProfileRequest represents the payload for creating a profile.
type CreateProfileRequest struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description"`
}

// Create handles POST /api/profiles.
func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID := contextutil.UserIDFromContext(ctx)

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeErrorStatus(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.CreateProfile(ctx, userID, req.Name, req.Avatar, req.Description)
	if err != nil {
		logger.WarnContext(ctx, "failed to create profile", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// List handles GET /api/profiles.
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	profiles, err := h.service.ListProfiles(ctx, userID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list profiles", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// Delete handles DELETE /api/profiles/{profileID}.
func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)
	profileID := chi.URLParam(r, "profileID")

	if err := h.service.DeleteProfile(ctx, userID, profileID); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete profile", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
