package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-publisher/internal/persistence"
)

func newOwnerServiceFixture() (*OwnerService, *ownerRepoStub) {
	repo := &ownerRepoStub{owners: make(map[string]persistence.EventOwner)}
	idGen := func() string { return "owner-1" }
	now := func() time.Time { return time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC) }
	return NewOwnerService(repo, idGen, now), repo
}

func TestOwnerService_CreateOwner(t *testing.T) {
	t.Parallel()

	svc, repo := newOwnerServiceFixture()

	owner, err := svc.CreateOwner(context.Background(), EventOwnerInput{
		Name:          "  Travis County Chapter ",
		AuthorizerIDs: []string{"blake@example.org", "alex@example.org", "alex@example.org", ""},
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("CreateOwner failed: %v", err)
	}

	if owner.Name != "Travis County Chapter" {
		t.Fatalf("expected trimmed name, got %q", owner.Name)
	}
	if len(owner.AuthorizerIDs) != 2 || owner.AuthorizerIDs[0] != "alex@example.org" {
		t.Fatalf("expected deduplicated sorted authorizers, got %v", owner.AuthorizerIDs)
	}
	if _, ok := repo.owners["owner-1"]; !ok {
		t.Fatal("owner not persisted")
	}
}

func TestOwnerService_CreateOwnerValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newOwnerServiceFixture()

	cases := []struct {
		name  string
		input EventOwnerInput
		field string
	}{
		{"missing name", EventOwnerInput{AuthorizerIDs: []string{"alex@example.org"}}, "name"},
		{"no authorizers", EventOwnerInput{Name: "Chapter"}, "authorizer_ids"},
		{"blank authorizers", EventOwnerInput{Name: "Chapter", AuthorizerIDs: []string{" ", ""}}, "authorizer_ids"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateOwner(context.Background(), tc.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected problem for %q, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestOwnerService_UpdateOwnerDeactivates(t *testing.T) {
	t.Parallel()

	svc, repo := newOwnerServiceFixture()
	repo.owners["owner-1"] = persistence.EventOwner{
		ID:            "owner-1",
		Name:          "Travis County Chapter",
		AuthorizerIDs: []string{"alex@example.org"},
		IsActive:      true,
	}

	owner, err := svc.UpdateOwner(context.Background(), "owner-1", EventOwnerInput{
		Name:          "Travis County Chapter",
		AuthorizerIDs: []string{"alex@example.org"},
		IsActive:      false,
	})
	if err != nil {
		t.Fatalf("UpdateOwner failed: %v", err)
	}
	if owner.IsActive {
		t.Fatal("expected owner deactivated")
	}
	if repo.owners["owner-1"].IsActive {
		t.Fatal("deactivation not persisted")
	}
}

func TestOwnerService_UpdateOwnerNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newOwnerServiceFixture()

	_, err := svc.UpdateOwner(context.Background(), "missing", EventOwnerInput{
		Name:          "Chapter",
		AuthorizerIDs: []string{"alex@example.org"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOwnerService_DeleteOwner(t *testing.T) {
	t.Parallel()

	svc, repo := newOwnerServiceFixture()
	repo.owners["owner-1"] = persistence.EventOwner{ID: "owner-1"}

	if err := svc.DeleteOwner(context.Background(), "owner-1"); err != nil {
		t.Fatalf("DeleteOwner failed: %v", err)
	}
	if err := svc.DeleteOwner(context.Background(), "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
