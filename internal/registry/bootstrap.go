package registry

import (
	"context"
	"errors"

	"github.com/dvloznov/property-registry/internal/localstore"
)

// Bootstrap resolves the registry's startup state. Every step is
// best-effort: a failure falls back to defaults or keeps whatever was
// resolved so far, and the registry always comes up usable.
//
// Sequence: load each collection from the local store (seed defaults
// when absent), restore the session marker if it still resolves to a
// loaded owner, then — when the remote capability is on — overlay
// owners and files with the remote tables, each replacing the local
// collection outright when its fetch comes back non-empty. Remote is
// authoritative on non-empty bootstrap; it is never merged here.
func (r *Registry) Bootstrap(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners = loadOrSeed(ctx, r, localstore.CollectionOwners, seedOwners)
	r.files = loadOrSeed(ctx, r, localstore.CollectionFiles, seedFiles)
	r.notices = loadOrSeed(ctx, r, localstore.CollectionNotices, seedNotices)
	r.messages = loadOrSeed(ctx, r, localstore.CollectionMessages, seedMessages)

	r.restoreSession(ctx)
	r.overlayRemote(ctx)

	r.log.Info().
		Int("owners", len(r.owners)).
		Int("files", len(r.files)).
		Int("notices", len(r.notices)).
		Int("messages", len(r.messages)).
		Bool("authenticated", r.sessionOwnerID != "").
		Msg("Registry ready")
}

func loadOrSeed[T any](ctx context.Context, r *Registry, name string, seed func() []T) []T {
	var loaded []T
	err := r.local.Get(ctx, name, &loaded)
	if err == nil {
		return loaded
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		r.log.Warn().Err(err).Str("collection", name).Msg("Failed to load collection, seeding defaults")
	}
	return seed()
}

// restoreSession re-activates the identity recorded in the session
// marker, but only when it still resolves to an owner in the
// just-loaded collection.
func (r *Registry) restoreSession(ctx context.Context) {
	ownerID, err := r.local.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			r.log.Warn().Err(err).Msg("Failed to read session marker")
		}
		return
	}
	if _, ok := r.findOwnerByID(ownerID); !ok {
		return
	}
	r.sessionOwnerID = ownerID
}

func (r *Registry) overlayRemote(ctx context.Context) {
	if r.mirror == nil || !r.mirror.Enabled() {
		return
	}

	if owners, err := r.mirror.FetchOwners(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Remote owners fetch failed, keeping local data")
	} else if len(owners) > 0 {
		r.owners = owners
		r.persistLocal(ctx, localstore.CollectionOwners, r.owners)
		// A replaced owner collection can invalidate the restored session.
		if _, ok := r.findOwnerByID(r.sessionOwnerID); !ok {
			r.sessionOwnerID = ""
		}
	}

	if files, err := r.mirror.FetchFiles(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Remote files fetch failed, keeping local data")
	} else if len(files) > 0 {
		r.files = files
		r.persistLocal(ctx, localstore.CollectionFiles, r.files)
	}
}
