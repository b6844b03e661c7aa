package notes

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"semnotes/internal/core"
)

func TestService_Submit_AssignsIDs(t *testing.T) {
	service, mockEmbedder := newTestService(t)
	ctx := context.Background()

	profile, err := service.CreateProfile(ctx, "u1", "Mom", "", "")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	mockEmbedder.EXPECT().Embed(gomock.Any(), "loves gardening").Return([]float32{0.1, 0.2}, nil)

	category := &Category{Name: "hobbies"}
	note := &Note{Entry: "loves gardening"}
	if err := service.Submit(ctx, "u1", profile.ID, []*Category{category}, []*Note{note}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if category.ID == "" {
		t.Error("Submit() assigned no category id")
	}
	if note.ID == "" {
		t.Error("Submit() assigned no note id")
	}

	noteList, err := service.ListNotes(ctx, "u1", profile.ID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(noteList) != 1 {
		t.Fatalf("ListNotes() returned %d notes, want 1", len(noteList))
	}
	got := noteList[0]
	if got.ID != note.ID || got.Entry != "loves gardening" {
		t.Errorf("ListNotes()[0] = %+v", got)
	}
	if len(got.Embedding) != 2 {
		t.Errorf("stored embedding has %d dims, want 2", len(got.Embedding))
	}
	if got.CreatedTs == 0 || got.UpdatedTs == 0 {
		t.Errorf("timestamps not set: %+v", got)
	}

	categories, err := service.ListCategories(ctx, "u1", profile.ID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "hobbies" {
		t.Errorf("ListCategories() = %+v", categories)
	}
}

func TestService_Submit_SameIDOverwrites(t *testing.T) {
	service, mockEmbedder := newTestService(t)
	ctx := context.Background()

	profile, err := service.CreateProfile(ctx, "u1", "Mom", "", "")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	mockEmbedder.EXPECT().Embed(gomock.Any(), "first draft").Return([]float32{1, 0}, nil)
	note := &Note{Entry: "first draft"}
	if err := service.Submit(ctx, "u1", profile.ID, nil, []*Note{note}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Resubmitting the same id recomputes the embedding and overwrites in
	// place rather than duplicating.
	mockEmbedder.EXPECT().Embed(gomock.Any(), "second draft").Return([]float32{0, 1}, nil)
	update := &Note{ID: note.ID, Entry: "second draft"}
	if err := service.Submit(ctx, "u1", profile.ID, nil, []*Note{update}); err != nil {
		t.Fatalf("Submit() resubmit error = %v", err)
	}

	noteList, err := service.ListNotes(ctx, "u1", profile.ID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(noteList) != 1 {
		t.Fatalf("ListNotes() returned %d notes after resubmit, want 1", len(noteList))
	}
	if noteList[0].Entry != "second draft" {
		t.Errorf("ListNotes()[0].Entry = %q, want %q", noteList[0].Entry, "second draft")
	}
	if noteList[0].Embedding[1] != 1 {
		t.Errorf("embedding not refreshed on resubmit: %v", noteList[0].Embedding)
	}
}

func TestService_Submit_UnknownProfile(t *testing.T) {
	service, _ := newTestService(t)

	err := service.Submit(context.Background(), "u1", "no-such-profile", nil, []*Note{{Entry: "x"}})
	if !errors.Is(err, core.ErrProfileNotFound) {
		t.Errorf("Submit() error = %v, want ErrProfileNotFound", err)
	}
}

func TestService_Submit_EmptyBatch(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	profile, err := service.CreateProfile(ctx, "u1", "Mom", "", "")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	err = service.Submit(ctx, "u1", profile.ID, nil, nil)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Submit() error = %v, want ErrInvalidInput", err)
	}
}

func TestService_Submit_EmbedFailureAborts(t *testing.T) {
	service, mockEmbedder := newTestService(t)
	ctx := context.Background()

	profile, err := service.CreateProfile(ctx, "u1", "Mom", "", "")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	mockEmbedder.EXPECT().Embed(gomock.Any(), "doomed").
		Return(nil, core.ErrEmbeddingUnavailable)

	err = service.Submit(ctx, "u1", profile.ID, nil, []*Note{{Entry: "doomed"}})
	if !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("Submit() error = %v, want ErrEmbeddingUnavailable", err)
	}

	noteList, err := service.ListNotes(ctx, "u1", profile.ID)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(noteList) != 0 {
		t.Errorf("ListNotes() after failed submit = %+v, want empty", noteList)
	}
}
