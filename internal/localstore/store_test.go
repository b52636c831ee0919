package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dvloznov/property-registry/internal/domain"
)

func openTestStore(t *testing.T, scope string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"), scope)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "v1")

	owners := []domain.Owner{
		{ID: "o1", NICKey: "942751234V", Name: "K. Perera", Role: domain.RoleOwner, Status: domain.StatusActive},
		{ID: "o2", NICKey: "3520212345678", Name: "A. Silva", Role: domain.RoleAdmin, Status: domain.StatusActive},
	}
	if err := s.Put(ctx, CollectionOwners, owners); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got []domain.Owner
	if err := s.Get(ctx, CollectionOwners, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d owners, want 2", len(got))
	}
	if got[0].NICKey != "942751234V" || got[1].Name != "A. Silva" {
		t.Errorf("snapshot mismatch: %+v", got)
	}
}

func TestPutReplacesPriorValue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "v1")

	if err := s.Put(ctx, CollectionNotices, []domain.Notice{{ID: "n1"}, {ID: "n2"}}); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := s.Put(ctx, CollectionNotices, []domain.Notice{{ID: "n3"}}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	var got []domain.Notice
	if err := s.Get(ctx, CollectionNotices, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "n3" {
		t.Errorf("Put did not replace prior snapshot: %+v", got)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t, "v1")

	var got []domain.Owner
	err := s.Get(context.Background(), CollectionOwners, &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}
}

func TestSnapshotsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")

	s, err := Open(path, "v1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put(ctx, CollectionMessages, []domain.Message{{ID: "m1", Body: "hello"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	s2, err := Open(path, "v1")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	var got []domain.Message
	if err := s2.Get(ctx, CollectionMessages, &got); err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if len(got) != 1 || got[0].Body != "hello" {
		t.Errorf("snapshot did not survive reopen: %+v", got)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")

	v1, err := Open(path, "v1")
	if err != nil {
		t.Fatalf("Open v1 failed: %v", err)
	}
	defer v1.Close()
	v2, err := Open(path, "v2")
	if err != nil {
		t.Fatalf("Open v2 failed: %v", err)
	}
	defer v2.Close()

	if err := v1.Put(ctx, CollectionOwners, []domain.Owner{{ID: "o1"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got []domain.Owner
	if err := v2.Get(ctx, CollectionOwners, &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("v2 Get = %v, want ErrNotFound", err)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "v1")

	if err := s.Put(ctx, CollectionOwners, []domain.Owner{{ID: "o1"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.PutSession(ctx, "o1"); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var got []domain.Owner
	if err := s.Get(ctx, CollectionOwners, &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Clear = %v, want ErrNotFound", err)
	}
	if _, err := s.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after Clear = %v, want ErrNotFound", err)
	}
}

func TestSessionMarker(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "v1")

	if _, err := s.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSession on empty store should be ErrNotFound, got %v", err)
	}

	if err := s.PutSession(ctx, "owner-42"); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	got, err := s.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != "owner-42" {
		t.Errorf("GetSession = %q, want owner-42", got)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if _, err := s.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after ClearSession = %v, want ErrNotFound", err)
	}
}
