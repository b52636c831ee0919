package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/property-registry/internal/domain"
	"github.com/dvloznov/property-registry/internal/localstore"
)

// fakeLocal is an in-memory stand-in for the SQLite store. It records
// the order of writes so tests can assert local-before-remote, and it
// can be told to fail.
type fakeLocal struct {
	snapshots map[string][]byte
	session   string
	failPuts  bool
	writes    *[]string // shared recorder, optional
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{snapshots: make(map[string][]byte)}
}

func (f *fakeLocal) record(event string) {
	if f.writes != nil {
		*f.writes = append(*f.writes, event)
	}
}

func (f *fakeLocal) Put(ctx context.Context, name string, value interface{}) error {
	if f.failPuts {
		return errors.New("disk full")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.snapshots[name] = data
	f.record("local:" + name)
	return nil
}

func (f *fakeLocal) Get(ctx context.Context, name string, out interface{}) error {
	data, ok := f.snapshots[name]
	if !ok {
		return localstore.ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func (f *fakeLocal) Clear(ctx context.Context) error {
	f.snapshots = make(map[string][]byte)
	f.session = ""
	return nil
}

func (f *fakeLocal) PutSession(ctx context.Context, ownerID string) error {
	f.session = ownerID
	return nil
}

func (f *fakeLocal) GetSession(ctx context.Context) (string, error) {
	if f.session == "" {
		return "", localstore.ErrNotFound
	}
	return f.session, nil
}

func (f *fakeLocal) ClearSession(ctx context.Context) error {
	f.session = ""
	return nil
}

// fakeMirror records upserts and serves canned fetch results.
type fakeMirror struct {
	owners []domain.Owner
	files  []domain.PropertyFile

	upsertedOwners [][]domain.Owner
	upsertedFiles  [][]domain.PropertyFile

	fetchErr  error
	upsertErr error
	writes    *[]string
}

func (f *fakeMirror) record(event string) {
	if f.writes != nil {
		*f.writes = append(*f.writes, event)
	}
}

func (f *fakeMirror) Enabled() bool { return true }

func (f *fakeMirror) UpsertOwners(ctx context.Context, owners []domain.Owner) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertedOwners = append(f.upsertedOwners, owners)
	f.record("mirror:owners")
	return nil
}

func (f *fakeMirror) UpsertFiles(ctx context.Context, files []domain.PropertyFile) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertedFiles = append(f.upsertedFiles, files)
	f.record("mirror:files")
	return nil
}

func (f *fakeMirror) FetchOwners(ctx context.Context) ([]domain.Owner, error) {
	return f.owners, f.fetchErr
}

func (f *fakeMirror) FetchFiles(ctx context.Context) ([]domain.PropertyFile, error) {
	return f.files, f.fetchErr
}

func newTestRegistry(local LocalStore, mirror RemoteMirror) *Registry {
	return New(local, mirror, zerolog.Nop())
}

func TestRegisterOwner(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal()
	r := newTestRegistry(local, nil)
	r.Bootstrap(ctx)

	owner, err := r.RegisterOwner(ctx, "35202-1234567-8", "K. Perera", "0771234567", "kp@example.com", "s3cret")
	if err != nil {
		t.Fatalf("RegisterOwner failed: %v", err)
	}
	if owner.NICKey != "3520212345678" {
		t.Errorf("NICKey = %q", owner.NICKey)
	}
	if !domain.CheckSecret(owner.SecretHash, "s3cret") {
		t.Error("secret hash does not verify")
	}

	// seed admin + new owner
	if got := len(r.Owners()); got != 2 {
		t.Errorf("owner count = %d, want 2", got)
	}

	// Same identity number with different punctuation is a duplicate.
	if _, err := r.RegisterOwner(ctx, "3520212345678", "Other", "", "", "x"); !errors.Is(err, ErrDuplicateNIC) {
		t.Errorf("duplicate RegisterOwner = %v, want ErrDuplicateNIC", err)
	}

	// The mutation was persisted locally.
	var persisted []domain.Owner
	if err := local.Get(ctx, localstore.CollectionOwners, &persisted); err != nil {
		t.Fatalf("owners not persisted: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted %d owners, want 2", len(persisted))
	}
}

func TestUpdateOwnerProfileAndStatus(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(newFakeLocal(), nil)
	r.Bootstrap(ctx)

	owner, err := r.RegisterOwner(ctx, "111-1", "Before", "", "", "x")
	if err != nil {
		t.Fatalf("RegisterOwner failed: %v", err)
	}

	if err := r.UpdateOwnerProfile(ctx, owner.ID, "After", "0771", "a@b.c"); err != nil {
		t.Fatalf("UpdateOwnerProfile failed: %v", err)
	}
	if err := r.SetOwnerStatus(ctx, owner.ID, domain.StatusDisabled); err != nil {
		t.Fatalf("SetOwnerStatus failed: %v", err)
	}

	var got domain.Owner
	for _, o := range r.Owners() {
		if o.ID == owner.ID {
			got = o
		}
	}
	if got.Name != "After" || got.Phone != "0771" || got.Email != "a@b.c" {
		t.Errorf("profile not updated: %+v", got)
	}
	if got.Status != domain.StatusDisabled {
		t.Errorf("status = %s, want disabled", got.Status)
	}

	if err := r.UpdateOwnerProfile(ctx, "missing", "X", "", ""); !errors.Is(err, ErrOwnerNotFound) {
		t.Errorf("UpdateOwnerProfile(missing) = %v, want ErrOwnerNotFound", err)
	}
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal()
	r := newTestRegistry(local, nil)
	r.Bootstrap(ctx)

	owner, err := r.RegisterOwner(ctx, "942751234V", "K. Perera", "", "", "hunter2")
	if err != nil {
		t.Fatalf("RegisterOwner failed: %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := r.Login(ctx, "942751234V", "wrong"); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("Login = %v, want ErrBadCredentials", err)
		}
	})

	t.Run("unknown identity", func(t *testing.T) {
		if _, err := r.Login(ctx, "999999999V", "hunter2"); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("Login = %v, want ErrBadCredentials", err)
		}
	})

	t.Run("success records marker", func(t *testing.T) {
		got, err := r.Login(ctx, "94275-1234v", "hunter2") // messy input normalizes
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if got.ID != owner.ID {
			t.Errorf("logged in as %q, want %q", got.ID, owner.ID)
		}
		if local.session != owner.ID {
			t.Errorf("session marker = %q, want %q", local.session, owner.ID)
		}
		if cur, ok := r.CurrentOwner(); !ok || cur.ID != owner.ID {
			t.Errorf("CurrentOwner = %+v, %v", cur, ok)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		if err := r.SetOwnerStatus(ctx, owner.ID, domain.StatusDisabled); err != nil {
			t.Fatalf("SetOwnerStatus failed: %v", err)
		}
		if _, err := r.Login(ctx, "942751234V", "hunter2"); !errors.Is(err, ErrAccountDisabled) {
			t.Errorf("Login on disabled account = %v, want ErrAccountDisabled", err)
		}
	})

	t.Run("logout clears marker", func(t *testing.T) {
		r.Logout(ctx)
		if local.session != "" {
			t.Errorf("session marker not cleared: %q", local.session)
		}
		if _, ok := r.CurrentOwner(); ok {
			t.Error("CurrentOwner still set after logout")
		}
	})
}

func TestNoticesAndMessagesPersist(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal()
	r := newTestRegistry(local, nil)
	r.Bootstrap(ctx)

	if _, err := r.AddNotice(ctx, "Water outage", "Block B, Friday"); err != nil {
		t.Fatalf("AddNotice failed: %v", err)
	}
	if _, err := r.SendMessage(ctx, "o1", "o2", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	var notices []domain.Notice
	if err := local.Get(ctx, localstore.CollectionNotices, &notices); err != nil || len(notices) != 1 {
		t.Errorf("notices not persisted: %v, %v", notices, err)
	}
	var messages []domain.Message
	if err := local.Get(ctx, localstore.CollectionMessages, &messages); err != nil || len(messages) != 1 {
		t.Errorf("messages not persisted: %v, %v", messages, err)
	}
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal()
	local.failPuts = true
	r := newTestRegistry(local, &fakeMirror{upsertErr: errors.New("remote down")})
	r.Bootstrap(ctx)

	// Mutations must succeed even when every store is failing:
	// in-memory state stays usable.
	owner, err := r.RegisterOwner(ctx, "111-1", "A", "", "", "x")
	if err != nil {
		t.Fatalf("RegisterOwner with failing stores = %v", err)
	}
	if _, err := r.AddNotice(ctx, "t", "b"); err != nil {
		t.Fatalf("AddNotice with failing stores = %v", err)
	}
	if got := len(r.Owners()); got != 2 {
		t.Errorf("owner count = %d, want 2", got)
	}
	_ = owner
}

func TestViewsReturnCopies(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(newFakeLocal(), nil)
	r.Bootstrap(ctx)

	owners := r.Owners()
	owners[0].Name = "mutated"

	if r.Owners()[0].Name == "mutated" {
		t.Error("view mutation leaked into registry state")
	}
}

func TestFactoryReset(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal()
	r := newTestRegistry(local, nil)
	r.Bootstrap(ctx)

	if _, err := r.RegisterOwner(ctx, "111-1", "A", "", "", "x"); err != nil {
		t.Fatalf("RegisterOwner failed: %v", err)
	}
	if _, err := r.Login(ctx, seedAdminNIC, domain.DefaultSecret); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	r.FactoryReset(ctx)

	owners := r.Owners()
	if len(owners) != 1 || owners[0].ID != seedAdminID {
		t.Errorf("owners after reset = %+v, want only seed admin", owners)
	}
	if len(r.Files()) != 0 || len(r.Notices()) != 0 || len(r.Messages()) != 0 {
		t.Error("collections not reseeded to defaults")
	}
	if _, ok := r.CurrentOwner(); ok {
		t.Error("session survived factory reset")
	}

	// Reseeded defaults were persisted.
	var persisted []domain.Owner
	if err := local.Get(ctx, localstore.CollectionOwners, &persisted); err != nil || len(persisted) != 1 {
		t.Errorf("seed owners not persisted after reset: %v, %v", persisted, err)
	}
}
