// Package registry holds the in-memory collections that are the
// single source of truth for a running portal. Every mutation funnels
// through the same two-step contract: update memory, persist the
// affected collections to the durable local store, then attempt a
// best-effort remote mirror upsert. Storage failures are logged and
// swallowed so a degraded store never takes the session down.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/property-registry/internal/domain"
	"github.com/dvloznov/property-registry/internal/localstore"
)

// LocalStore is the durable local store surface the registry writes
// through. Implemented by *localstore.Store.
type LocalStore interface {
	Put(ctx context.Context, name string, value interface{}) error
	Get(ctx context.Context, name string, out interface{}) error
	Clear(ctx context.Context) error
	PutSession(ctx context.Context, ownerID string) error
	GetSession(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
}

// RemoteMirror is the best-effort remote mirror surface. Implemented
// by *mirror.Mirror; a nil value disables mirroring.
type RemoteMirror interface {
	Enabled() bool
	UpsertOwners(ctx context.Context, owners []domain.Owner) error
	UpsertFiles(ctx context.Context, files []domain.PropertyFile) error
	FetchOwners(ctx context.Context) ([]domain.Owner, error)
	FetchFiles(ctx context.Context) ([]domain.PropertyFile, error)
}

// Sentinel errors surfaced by mutation entry points.
var (
	ErrOwnerNotFound   = errors.New("registry: owner not found")
	ErrDuplicateNIC    = errors.New("registry: an owner with this identity number already exists")
	ErrBadCredentials  = errors.New("registry: identity number and secret do not match")
	ErrAccountDisabled = errors.New("registry: account is disabled")
)

// Registry holds the four primary collections plus the active session.
// The surrounding surfaces are expected to keep a single mutation in
// flight; the mutex only guards against accidental interleaving.
type Registry struct {
	mu     sync.Mutex
	log    zerolog.Logger
	local  LocalStore
	mirror RemoteMirror

	owners   []domain.Owner
	files    []domain.PropertyFile
	notices  []domain.Notice
	messages []domain.Message

	sessionOwnerID string
}

// New creates a registry over the given stores. mirror may be nil.
func New(local LocalStore, mirror RemoteMirror, log zerolog.Logger) *Registry {
	return &Registry{
		log:    log,
		local:  local,
		mirror: mirror,
	}
}

// ---- read views ----
// Views return copies; internal slices are never shared with callers.

func (r *Registry) Owners() []domain.Owner {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Owner, len(r.owners))
	copy(out, r.owners)
	return out
}

func (r *Registry) Files() []domain.PropertyFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PropertyFile, len(r.files))
	copy(out, r.files)
	return out
}

// FilesByOwner returns the files whose denormalized owner linkage
// matches the given normalized identity number.
func (r *Registry) FilesByOwner(nicKey string) []domain.PropertyFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PropertyFile
	for _, f := range r.files {
		if f.OwnerNICKey == nicKey {
			out = append(out, f)
		}
	}
	return out
}

func (r *Registry) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *Registry) Messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// CurrentOwner returns the authenticated owner, if any.
func (r *Registry) CurrentOwner() (domain.Owner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOwnerByID(r.sessionOwnerID)
}

func (r *Registry) findOwnerByID(id string) (domain.Owner, bool) {
	if id == "" {
		return domain.Owner{}, false
	}
	for _, o := range r.owners {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Owner{}, false
}

// ---- mutation entry points ----

// RegisterOwner creates one owner at registration time. The normalized
// identity number must be unique across the collection.
func (r *Registry) RegisterOwner(ctx context.Context, nic, name, phone, email, secret string) (domain.Owner, error) {
	nicKey := domain.NormalizeNIC(nic)
	if nicKey == "" {
		return domain.Owner{}, fmt.Errorf("RegisterOwner: identity number %q has no usable characters", nic)
	}

	hash, err := domain.HashSecret(secret)
	if err != nil {
		return domain.Owner{}, fmt.Errorf("RegisterOwner: hashing secret: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.owners {
		if o.NICKey == nicKey {
			return domain.Owner{}, ErrDuplicateNIC
		}
	}

	owner := domain.Owner{
		ID:         uuid.NewString(),
		NIC:        nic,
		NICKey:     nicKey,
		Name:       name,
		Phone:      phone,
		Email:      email,
		Role:       domain.RoleOwner,
		Status:     domain.StatusActive,
		SecretHash: hash,
	}
	r.owners = append(r.owners, owner)
	r.persistOwners(ctx)
	return owner, nil
}

// UpdateOwnerProfile edits an owner's display fields in place.
func (r *Registry) UpdateOwnerProfile(ctx context.Context, id, name, phone, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.owners {
		if r.owners[i].ID != id {
			continue
		}
		r.owners[i].Name = name
		r.owners[i].Phone = phone
		r.owners[i].Email = email
		r.persistOwners(ctx)
		return nil
	}
	return ErrOwnerNotFound
}

// SetOwnerStatus flags an owner's account status. Owners are never
// hard-deleted.
func (r *Registry) SetOwnerStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.owners {
		if r.owners[i].ID != id {
			continue
		}
		r.owners[i].Status = status
		r.persistOwners(ctx)
		return nil
	}
	return ErrOwnerNotFound
}

// AddNotice appends a broadcast notice.
func (r *Registry) AddNotice(ctx context.Context, title, body string) (domain.Notice, error) {
	notice := domain.Notice{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	r.persistLocal(ctx, localstore.CollectionNotices, r.notices)
	return notice, nil
}

// SendMessage appends a direct message.
func (r *Registry) SendMessage(ctx context.Context, fromID, toID, body string) (domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		FromID:    fromID,
		ToID:      toID,
		Body:      body,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	r.persistLocal(ctx, localstore.CollectionMessages, r.messages)
	return msg, nil
}

// Login authenticates an owner by identity number and secret, records
// the session marker, and returns the owner.
func (r *Registry) Login(ctx context.Context, nic, secret string) (domain.Owner, error) {
	nicKey := domain.NormalizeNIC(nic)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.owners {
		if o.NICKey != nicKey {
			continue
		}
		if !domain.CheckSecret(o.SecretHash, secret) {
			return domain.Owner{}, ErrBadCredentials
		}
		if o.Status != domain.StatusActive {
			return domain.Owner{}, ErrAccountDisabled
		}
		r.sessionOwnerID = o.ID
		if err := r.local.PutSession(ctx, o.ID); err != nil {
			r.log.Warn().Err(err).Msg("Failed to persist session marker")
		}
		return o, nil
	}
	return domain.Owner{}, ErrBadCredentials
}

// Logout drops the active session and its marker.
func (r *Registry) Logout(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessionOwnerID = ""
	if err := r.local.ClearSession(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Failed to clear session marker")
	}
}

// FactoryReset clears the entire storage namespace and reseeds every
// collection from fixed defaults.
func (r *Registry) FactoryReset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.local.Clear(ctx); err != nil {
		r.log.Error().Err(err).Msg("Failed to clear local store during factory reset")
	}

	r.owners = seedOwners()
	r.files = seedFiles()
	r.notices = seedNotices()
	r.messages = seedMessages()
	r.sessionOwnerID = ""

	r.persistOwners(ctx)
	r.persistFiles(ctx)
	r.persistLocal(ctx, localstore.CollectionNotices, r.notices)
	r.persistLocal(ctx, localstore.CollectionMessages, r.messages)
}

// ---- persistence funnel ----
// Local persistence is awaited before any remote sync is attempted, so
// a slow or failing mirror never leaves the durable local copy behind
// memory. Failures on either side are logged and swallowed: in-memory
// state remains the source of truth for the session.

func (r *Registry) persistOwners(ctx context.Context) {
	r.persistLocal(ctx, localstore.CollectionOwners, r.owners)
	if r.mirror == nil || !r.mirror.Enabled() {
		return
	}
	if err := r.mirror.UpsertOwners(ctx, r.owners); err != nil {
		r.log.Warn().Err(err).Msg("Remote mirror upsert of owners failed")
	}
}

func (r *Registry) persistFiles(ctx context.Context) {
	r.persistLocal(ctx, localstore.CollectionFiles, r.files)
	if r.mirror == nil || !r.mirror.Enabled() {
		return
	}
	if err := r.mirror.UpsertFiles(ctx, r.files); err != nil {
		r.log.Warn().Err(err).Msg("Remote mirror upsert of files failed")
	}
}

func (r *Registry) persistLocal(ctx context.Context, name string, value interface{}) {
	if err := r.local.Put(ctx, name, value); err != nil {
		r.log.Error().Err(err).Str("collection", name).Msg("Failed to persist collection locally")
	}
}
