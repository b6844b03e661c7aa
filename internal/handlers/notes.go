package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"semnotes/internal/contextutil"
	"semnotes/internal/notes"
)

// NotesHandler handles category and note requests under a profile.
type NotesHandler struct {
	service *notes.Service
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(service *notes.Service) *NotesHandler {
	return &NotesHandler{service: service}
}

// SubmitRequest represents the payload for a batch submit.
type SubmitRequest struct {
	Categories []*notes.Category `json:"categories"`
	Notes      []*notes.Note     `json:"notes"`
}

// SubmitResponse acknowledges a completed submit with the ids assigned to the
// batch, so retries after a partial failure can reuse them.
type SubmitResponse struct {
	CategoryIDs []string `json:"categoryIds"`
	NoteIDs     []string `json:"noteIds"`
}

// ListCategories handles GET /api/profiles/{profileID}/categories.
func (h *NotesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)
	profileID := chi.URLParam(r, "profileID")

	categories, err := h.service.ListCategories(ctx, userID, profileID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list categories", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// ListNotes handles GET /api/profiles/{profileID}/notes.
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)
	profileID := chi.URLParam(r, "profileID")

	noteList, err := h.service.ListNotes(ctx, userID, profileID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list notes", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noteList)
}

// Submit handles POST /api/profiles/{profileID}/submit.
func (h *NotesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID := contextutil.UserIDFromContext(ctx)
	profileID := chi.URLParam(r, "profileID")

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeErrorStatus(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Submit(ctx, userID, profileID, req.Categories, req.Notes); err != nil {
		logger.ErrorContext(ctx, "submit failed", "error", err)
		writeError(w, err)
		return
	}

	resp := SubmitResponse{
		CategoryIDs: make([]string, len(req.Categories)),
		NoteIDs:     make([]string, len(req.Notes)),
	}
	for i, c := range req.Categories {
		resp.CategoryIDs[i] = c.ID
	}
	for i, n := range req.Notes {
		resp.NoteIDs[i] = n.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteNote handles DELETE /api/profiles/{profileID}/notes/{noteID}.
func (h *NotesHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)
	profileID := chi.URLParam(r, "profileID")
	noteID := chi.URLParam(r, "noteID")

	if err := h.service.DeleteNote(ctx, userID, profileID, noteID); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete note", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
