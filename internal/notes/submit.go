package notes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"semnotes/internal/contextutil"
	"semnotes/internal/core"
	"semnotes/internal/kvstore"
	"semnotes/internal/mirror"
)

// Submit batch-persists categories and notes for one profile.
//
// Every note is embedded (always recomputed, so same-id resubmits refresh
// stale vectors) and written to the key-value store with its embedding, then
// projected into the mirror carrying the profile display name resolved once
// per call. Category and note writes fan out concurrently; the call succeeds
// only if every write succeeds. Failed branches do not cancel siblings and
// already-applied writes are not rolled back, so retries must reuse the
// assigned ids (resubmitting the same id overwrites rather than duplicates).
func (s *Service) Submit(ctx context.Context, userID, profileID string, categories []*Category, noteBatch []*Note) error {
	logger := contextutil.LoggerFromContext(ctx)

	if profileID == "" {
		return &core.ValidationError{Field: "profileId", Message: "cannot be empty"}
	}
	if len(categories) == 0 && len(noteBatch) == 0 {
		return &core.ValidationError{Field: "batch", Message: "no categories or notes to submit"}
	}

	// Resolve the display name once, not per note.
	profile, err := s.GetProfile(ctx, userID, profileID)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	var g errgroup.Group

	for _, category := range categories {
		if category.ID == "" {
			category.ID = uuid.New().String()
		}
		category.ProfileID = profileID
		if category.CreatedTs == 0 {
			category.CreatedTs = now
		}

		c := category
		g.Go(func() error {
			return s.kv.Set(ctx, kvstore.CategoryKey(userID, profileID, c.ID), kvstore.KindCategory, c)
		})
	}

	for _, note := range noteBatch {
		if note.ID == "" {
			note.ID = uuid.New().String()
		}
		note.ProfileID = profileID
		note.UserID = userID
		if note.CreatedTs == 0 {
			note.CreatedTs = now
		}
		note.UpdatedTs = now

		n := note
		g.Go(func() error {
			vec, err := s.embedder.Embed(ctx, n.Entry)
			if err != nil {
				return err
			}
			n.Embedding = vec

			if err := s.kv.Set(ctx, kvstore.NoteKey(userID, profileID, n.ID), kvstore.KindNote, n); err != nil {
				return err
			}

			return s.mirror.UpsertMemory(ctx, &mirror.MemoryRow{
				ID:          n.ID,
				UserID:      userID,
				ProfileID:   profileID,
				ProfileName: profile.Name,
				Entry:       n.Entry,
				Embedding:   vec,
				CreatedTs:   n.CreatedTs,
				UpdatedTs:   n.UpdatedTs,
			})
		})
	}

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "submit failed",
			"user_id", userID, "profile_id", profileID,
			"categories", len(categories), "notes", len(noteBatch), "error", err)
		return err
	}

	logger.InfoContext(ctx, "submit completed",
		"user_id", userID, "profile_id", profileID,
		"categories", len(categories), "notes", len(noteBatch))
	return nil
}
