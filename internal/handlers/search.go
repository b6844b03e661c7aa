package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"semnotes/internal/contextutil"
	"semnotes/internal/notes"
	"semnotes/internal/search"
)

// SearchHandler handles semantic search requests.
type SearchHandler struct {
	engine *search.Engine
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// SearchRequest represents the payload for a search query. The scope is
// optional; when both id and name are given the id wins.
type SearchRequest struct {
	Query       string `json:"query"`
	ProfileID   string `json:"profileId,omitempty"`
	ProfileName string `json:"profileName,omitempty"`
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID := contextutil.UserIDFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeErrorStatus(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var scope *notes.ProfileRef
	if req.ProfileID != "" || strings.TrimSpace(req.ProfileName) != "" {
		scope = &notes.ProfileRef{ID: req.ProfileID, Name: req.ProfileName}
	}

	results, err := h.engine.Search(ctx, userID, req.Query, scope)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "query", req.Query, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}
