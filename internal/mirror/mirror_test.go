package mirror

import (
	"context"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := New(tmpDir + "/mirror.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestDB_UpsertMemoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	row := &MemoryRow{
		ID:          "n1",
		UserID:      "u1",
		ProfileID:   "p1",
		ProfileName: "Mom",
		Entry:       "loves gardening",
		Embedding:   []float32{0.25, -1.5, 3},
		CreatedTs:   100,
		UpdatedTs:   200,
	}
	if err := db.UpsertMemory(ctx, row); err != nil {
		t.Fatalf("UpsertMemory() error = %v", err)
	}

	memories, err := db.ListMemoriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemoriesByUser() error = %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("ListMemoriesByUser() returned %d rows, want 1", len(memories))
	}

	got := memories[0]
	if got.ID != "n1" || got.ProfileName != "Mom" || got.Entry != "loves gardening" {
		t.Errorf("ListMemoriesByUser() = %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.25 || got.Embedding[1] != -1.5 || got.Embedding[2] != 3 {
		t.Errorf("embedding round trip = %v, want [0.25 -1.5 3]", got.Embedding)
	}
}

func TestDB_UpsertMemoryOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMemory(ctx, &MemoryRow{ID: "n1", UserID: "u1", ProfileID: "p1", Entry: "old", Embedding: []float32{1}}); err != nil {
		t.Fatalf("UpsertMemory() error = %v", err)
	}
	if err := db.UpsertMemory(ctx, &MemoryRow{ID: "n1", UserID: "u1", ProfileID: "p1", Entry: "new", Embedding: []float32{2}}); err != nil {
		t.Fatalf("UpsertMemory() error = %v", err)
	}

	memories, err := db.ListMemoriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemoriesByUser() error = %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("ListMemoriesByUser() returned %d rows after overwrite, want 1", len(memories))
	}
	if memories[0].Entry != "new" {
		t.Errorf("entry = %s, want new", memories[0].Entry)
	}
}

func TestDB_ListMemoriesInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Identical timestamps; listing must still preserve write order.
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := db.UpsertMemory(ctx, &MemoryRow{ID: id, UserID: "u1", ProfileID: "p1", Entry: id, Embedding: []float32{1}}); err != nil {
			t.Fatalf("UpsertMemory(%s) error = %v", id, err)
		}
	}

	memories, err := db.ListMemoriesByProfile(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("ListMemoriesByProfile() error = %v", err)
	}

	want := []string{"charlie", "alpha", "bravo"}
	if len(memories) != len(want) {
		t.Fatalf("ListMemoriesByProfile() returned %d rows, want %d", len(memories), len(want))
	}
	for i, id := range want {
		if memories[i].ID != id {
			t.Errorf("memories[%d].ID = %s, want %s", i, memories[i].ID, id)
		}
	}
}

func TestDB_ListMemoriesByProfileScoping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seed := []*MemoryRow{
		{ID: "n1", UserID: "u1", ProfileID: "p1", Entry: "a", Embedding: []float32{1}},
		{ID: "n2", UserID: "u1", ProfileID: "p2", Entry: "b", Embedding: []float32{1}},
		{ID: "n3", UserID: "u2", ProfileID: "p1", Entry: "c", Embedding: []float32{1}},
	}
	for _, row := range seed {
		if err := db.UpsertMemory(ctx, row); err != nil {
			t.Fatalf("UpsertMemory(%s) error = %v", row.ID, err)
		}
	}

	byProfile, err := db.ListMemoriesByProfile(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("ListMemoriesByProfile() error = %v", err)
	}
	if len(byProfile) != 1 || byProfile[0].ID != "n1" {
		t.Errorf("ListMemoriesByProfile() = %+v, want only n1", byProfile)
	}

	byUser, err := db.ListMemoriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemoriesByUser() error = %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("ListMemoriesByUser() returned %d rows, want 2", len(byUser))
	}
}

func TestDB_DeleteMemory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMemory(ctx, &MemoryRow{ID: "n1", UserID: "u1", ProfileID: "p1", Entry: "a", Embedding: []float32{1}}); err != nil {
		t.Fatalf("UpsertMemory() error = %v", err)
	}
	if err := db.DeleteMemory(ctx, "n1"); err != nil {
		t.Fatalf("DeleteMemory() error = %v", err)
	}

	memories, err := db.ListMemoriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemoriesByUser() error = %v", err)
	}
	if len(memories) != 0 {
		t.Errorf("ListMemoriesByUser() returned %d rows after delete, want 0", len(memories))
	}

	if err := db.DeleteMemory(ctx, "absent"); err != nil {
		t.Errorf("DeleteMemory(absent) error = %v, want nil", err)
	}
}

func TestDB_DeleteProfileCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertProfile(ctx, &ProfileRow{ID: "p1", UserID: "u1", Name: "Mom"}); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	for _, id := range []string{"n1", "n2"} {
		if err := db.UpsertMemory(ctx, &MemoryRow{ID: id, UserID: "u1", ProfileID: "p1", Entry: id, Embedding: []float32{1}}); err != nil {
			t.Fatalf("UpsertMemory(%s) error = %v", id, err)
		}
	}
	if err := db.UpsertMemory(ctx, &MemoryRow{ID: "keep", UserID: "u1", ProfileID: "p2", Entry: "keep", Embedding: []float32{1}}); err != nil {
		t.Fatalf("UpsertMemory(keep) error = %v", err)
	}

	if err := db.DeleteProfile(ctx, "u1", "p1"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}

	memories, err := db.ListMemoriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemoriesByUser() error = %v", err)
	}
	if len(memories) != 1 || memories[0].ID != "keep" {
		t.Errorf("ListMemoriesByUser() = %+v, want only the other profile's row", memories)
	}
}
