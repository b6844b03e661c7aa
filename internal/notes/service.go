package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"semnotes/internal/contextutil"
	"semnotes/internal/core"
	"semnotes/internal/embedding"
	"semnotes/internal/kvstore"
	"semnotes/internal/mirror"
)

// MaxProfilesPerUser is the hard cap on profiles a single user may own.
const MaxProfilesPerUser = 5

// Service owns profile, category, and note lifecycle across the key-value
// store (system of record) and the relational mirror (retrieval projection).
// The two stores are physically separate with no distributed transaction: a
// crash between the two writes leaves them inconsistent until the next delete
// or overwrite. That window is accepted; the key-value store is the source of
// truth for existence.
type Service struct {
	kv       *kvstore.Store
	mirror   *mirror.DB
	embedder embedding.Provider
}

// NewService creates a new notes Service.
func NewService(kv *kvstore.Store, mirrorDB *mirror.DB, embedder embedding.Provider) *Service {
	return &Service{
		kv:       kv,
		mirror:   mirrorDB,
		embedder: embedder,
	}
}

// CreateProfile creates a profile for a user, enforcing the per-user limit.
// The limit check and the write are one store transaction, so concurrent
// creates cannot overshoot the limit.
func (s *Service) CreateProfile(ctx context.Context, userID, name, avatar, description string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &core.ValidationError{Field: "name", Message: "cannot be empty"}
	}

	profile := &Profile{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Avatar:      avatar,
		Description: description,
		CreatedTs:   time.Now().Unix(),
	}

	err := s.kv.SetWithCountLimit(ctx,
		kvstore.ProfileKey(userID, profile.ID), kvstore.KindProfile, profile,
		kvstore.UserPrefix(userID), MaxProfilesPerUser,
	)
	if errors.Is(err, kvstore.ErrLimitExceeded) {
		return nil, core.ErrProfileLimitReached
	}
	if err != nil {
		return nil, err
	}

	if err := s.mirror.UpsertProfile(ctx, &mirror.ProfileRow{
		ID:     profile.ID,
		UserID: userID,
		Name:   name,
	}); err != nil {
		return nil, err
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "profile created",
		"user_id", userID, "profile_id", profile.ID, "name", name)
	return profile, nil
}

// DeleteProfile deletes a profile and cascades to its categories, notes, and
// mirror rows. The mirror delete is best-effort: a failure there is logged and
// the delete still succeeds, since the key-value store decides existence and
// search filters out rows with no backing note.
func (s *Service) DeleteProfile(ctx context.Context, userID, profileID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	children, err := s.kv.ListByPrefix(ctx, kvstore.ProfileChildPrefix(userID, profileID))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(children)+1)
	for _, rec := range children {
		keys = append(keys, rec.Key)
	}
	keys = append(keys, kvstore.ProfileKey(userID, profileID))

	if err := s.kv.DeleteMany(ctx, keys); err != nil {
		return err
	}

	if err := s.mirror.DeleteProfile(ctx, userID, profileID); err != nil {
		logger.WarnContext(ctx, "failed to delete mirror rows for profile",
			"user_id", userID, "profile_id", profileID, "error", err)
	}

	logger.InfoContext(ctx, "profile deleted",
		"user_id", userID, "profile_id", profileID, "children", len(children))
	return nil
}

// ListProfiles returns all profiles owned by a user.
func (s *Service) ListProfiles(ctx context.Context, userID string) ([]*Profile, error) {
	records, err := s.kv.ListByPrefix(ctx, kvstore.UserPrefix(userID))
	if err != nil {
		return nil, err
	}

	profiles := []*Profile{}
	for _, rec := range records {
		if rec.Kind != kvstore.KindProfile {
			continue
		}
		var p Profile
		if err := json.Unmarshal(rec.Value, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile %s: %w", rec.Key, err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

// ListCategories returns the categories under one profile.
func (s *Service) ListCategories(ctx context.Context, userID, profileID string) ([]*Category, error) {
	records, err := s.kv.ListByPrefix(ctx, kvstore.ProfileChildPrefix(userID, profileID))
	if err != nil {
		return nil, err
	}

	categories := []*Category{}
	for _, rec := range records {
		if rec.Kind != kvstore.KindCategory {
			continue
		}
		var c Category
		if err := json.Unmarshal(rec.Value, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category %s: %w", rec.Key, err)
		}
		categories = append(categories, &c)
	}
	return categories, nil
}

// ListNotes returns the notes under one profile.
func (s *Service) ListNotes(ctx context.Context, userID, profileID string) ([]*Note, error) {
	records, err := s.kv.ListByPrefix(ctx, kvstore.ProfileChildPrefix(userID, profileID))
	if err != nil {
		return nil, err
	}
	return notesFromRecords(records)
}

// ListAllNotes returns every note a user owns, across all profiles.
func (s *Service) ListAllNotes(ctx context.Context, userID string) ([]*Note, error) {
	records, err := s.kv.ListByPrefix(ctx, kvstore.UserPrefix(userID))
	if err != nil {
		return nil, err
	}
	return notesFromRecords(records)
}

func notesFromRecords(records []kvstore.Record) ([]*Note, error) {
	notes := []*Note{}
	for _, rec := range records {
		if rec.Kind != kvstore.KindNote {
			continue
		}
		var n Note
		if err := json.Unmarshal(rec.Value, &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal note %s: %w", rec.Key, err)
		}
		notes = append(notes, &n)
	}
	return notes, nil
}

// DeleteNote removes a note from the key-value store and, best-effort, its
// mirror row. A mirror failure is logged as a warning, not surfaced as a
// failure of the delete.
func (s *Service) DeleteNote(ctx context.Context, userID, profileID, noteID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := s.kv.Delete(ctx, kvstore.NoteKey(userID, profileID, noteID)); err != nil {
		return err
	}

	if err := s.mirror.DeleteMemory(ctx, noteID); err != nil {
		logger.WarnContext(ctx, "failed to delete mirror row for note",
			"user_id", userID, "note_id", noteID, "error", err)
	}

	logger.InfoContext(ctx, "note deleted", "user_id", userID, "note_id", noteID)
	return nil
}

// ResolveProfile resolves a ProfileRef to a profile id.
//
// An explicit id passes through unchecked. A name is matched case-insensitively
// and whitespace-trimmed against the user's profiles; zero matches fail with
// core.ErrProfileNotFound. When several profiles share a name the first in
// listing order wins; listing order is not guaranteed, so the pick is
// documented as non-deterministic rather than given new tie-break semantics.
func (s *Service) ResolveProfile(ctx context.Context, userID string, ref ProfileRef) (string, error) {
	if ref.ID != "" {
		return ref.ID, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return "", &core.ValidationError{Field: "profile", Message: "id or name is required"}
	}

	profiles, err := s.ListProfiles(ctx, userID)
	if err != nil {
		return "", err
	}

	for _, p := range profiles {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrProfileNotFound, ref.Name)
}

// GetProfile reads one profile record from the key-value store.
func (s *Service) GetProfile(ctx context.Context, userID, profileID string) (*Profile, error) {
	var p Profile
	if _, err := s.kv.Get(ctx, kvstore.ProfileKey(userID, profileID), &p); err != nil {
		if err == kvstore.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", core.ErrProfileNotFound, profileID)
		}
		return nil, err
	}
	return &p, nil
}
