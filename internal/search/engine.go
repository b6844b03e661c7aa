package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"semnotes/internal/contextutil"
	"semnotes/internal/embedding"
	"semnotes/internal/mirror"
	"semnotes/internal/notes"
)

// MaxResults is the result cap of a single search.
const MaxResults = 10

// Result is one ranked note.
type Result struct {
	NoteID     string  `json:"noteId"`
	ProfileID  string  `json:"profileId"`
	Entry      string  `json:"entry"`
	Similarity float64 `json:"similarity"`
	Percentage string  `json:"percentage"`
	SearchURL  string  `json:"searchUrl"`
}

// Results is a ranked result set. NoNotes distinguishes "the candidate set was
// empty" from "nothing ranked highly".
type Results struct {
	Matches []Result `json:"matches"`
	NoNotes bool     `json:"noNotes"`
}

// Engine ranks a user's notes by cosine similarity against a query embedding.
type Engine struct {
	embedder embedding.Provider
	mirror   *mirror.DB
	notes    *notes.Service
}

// NewEngine creates a new search Engine.
func NewEngine(embedder embedding.Provider, mirrorDB *mirror.DB, notesService *notes.Service) *Engine {
	return &Engine{
		embedder: embedder,
		mirror:   mirrorDB,
		notes:    notesService,
	}
}

// Search embeds the query and returns the top-ranked notes, scoped to one
// profile when scope is non-nil (by id or display name) or to all of the
// user's notes otherwise.
//
// Candidates come from the mirror and are cross-checked against the key-value
// store so stale mirror rows (left behind by a failed best-effort delete)
// never surface. An empty query embeds to the zero vector and scores 0
// everywhere; an empty candidate set returns NoNotes, not an error.
func (e *Engine) Search(ctx context.Context, userID, query string, scope *notes.ProfileRef) (*Results, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var candidates []*mirror.MemoryRow
	var live map[string]bool
	var err error

	if scope != nil {
		profileID, rerr := e.notes.ResolveProfile(ctx, userID, *scope)
		if rerr != nil {
			return nil, rerr
		}
		candidates, err = e.mirror.ListMemoriesByProfile(ctx, userID, profileID)
		if err != nil {
			return nil, err
		}
		live, err = e.liveNoteIDs(ctx, userID, profileID)
	} else {
		candidates, err = e.mirror.ListMemoriesByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		live, err = e.liveNoteIDs(ctx, userID, "")
	}
	if err != nil {
		return nil, err
	}

	current := make([]*mirror.MemoryRow, 0, len(candidates))
	for _, row := range candidates {
		if live[row.ID] {
			current = append(current, row)
		}
	}
	if stale := len(candidates) - len(current); stale > 0 {
		logger.WarnContext(ctx, "ignoring stale mirror rows", "user_id", userID, "count", stale)
	}

	if len(current) == 0 {
		logger.InfoContext(ctx, "search found no notes", "user_id", userID)
		return &Results{Matches: []Result{}, NoNotes: true}, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		row        *mirror.MemoryRow
		similarity float64
	}
	ranked := make([]scored, len(current))
	for i, row := range current {
		ranked[i] = scored{row: row, similarity: CosineSimilarity(queryVec, row.Embedding)}
	}

	// Stable: ties keep original candidate-set order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}

	matches := make([]Result, len(ranked))
	for i, s := range ranked {
		matches[i] = Result{
			NoteID:     s.row.ID,
			ProfileID:  s.row.ProfileID,
			Entry:      s.row.Entry,
			Similarity: s.similarity,
			Percentage: fmt.Sprintf("%.1f%%", s.similarity*100),
			SearchURL:  searchURL(s.row.Entry),
		}
	}

	logger.InfoContext(ctx, "search completed",
		"user_id", userID, "candidates", len(current), "results", len(matches))
	return &Results{Matches: matches}, nil
}

// liveNoteIDs returns the ids of notes currently present in the key-value
// store, scoped to one profile when profileID is non-empty.
func (e *Engine) liveNoteIDs(ctx context.Context, userID, profileID string) (map[string]bool, error) {
	var list []*notes.Note
	var err error
	if profileID != "" {
		list, err = e.notes.ListNotes(ctx, userID, profileID)
	} else {
		list, err = e.notes.ListAllNotes(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(list))
	for _, n := range list {
		ids[n.ID] = true
	}
	return ids, nil
}

// searchURL builds a convenience external-search link for a note entry.
func searchURL(entry string) string {
	return "https://duckduckgo.com/?q=" + url.QueryEscape(entry)
}
