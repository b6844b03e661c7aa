package notes

import (
	"context"
	"errors"
	"testing"

	"semnotes/internal/core"
)

func TestService_ResolveProfile(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	mom, err := service.CreateProfile(ctx, "u1", "Mom", "", "")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	tests := []struct {
		name    string
		ref     ProfileRef
		want    string
		wantErr error
	}{
		{
			name: "id passes through unchecked",
			ref:  ProfileRef{ID: "some-opaque-id"},
			want: "some-opaque-id",
		},
		{
			name: "exact name match",
			ref:  ProfileRef{Name: "Mom"},
			want: mom.ID,
		},
		{
			name: "case-insensitive match",
			ref:  ProfileRef{Name: "mom"},
			want: mom.ID,
		},
		{
			name: "whitespace-trimmed match",
			ref:  ProfileRef{Name: "  Mom  "},
			want: mom.ID,
		},
		{
			name:    "unknown name",
			ref:     ProfileRef{Name: "Dad"},
			wantErr: core.ErrProfileNotFound,
		},
		{
			name:    "empty ref",
			ref:     ProfileRef{},
			wantErr: core.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ResolveProfile(ctx, "u1", tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveProfile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveProfile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveProfile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_ResolveProfile_OtherUsersProfilesInvisible(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateProfile(ctx, "u1", "Mom", "", ""); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	_, err := service.ResolveProfile(ctx, "u2", ProfileRef{Name: "Mom"})
	if !errors.Is(err, core.ErrProfileNotFound) {
		t.Errorf("ResolveProfile() for other user error = %v, want ErrProfileNotFound", err)
	}
}
