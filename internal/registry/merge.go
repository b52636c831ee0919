package registry

import (
	"context"
	"fmt"

	"github.com/dvloznov/property-registry/internal/domain"
	"github.com/dvloznov/property-registry/internal/pipeline"
)

// Mode selects how an ingested batch combines with the existing
// collections.
type Mode string

const (
	// ModeIncremental overlays the batch on the existing collections
	// by natural key: a batch entity with a key already present fully
	// replaces the old entity (last-write-wins at entity granularity,
	// no field-level merge).
	ModeIncremental Mode = "incremental"

	// ModeDestructive replaces both collections with the batch
	// outright.
	ModeDestructive Mode = "destructive"
)

// ParseMode maps a caller-supplied string onto a Mode; anything other
// than "destructive" is the incremental default.
func ParseMode(raw string) Mode {
	if Mode(raw) == ModeDestructive {
		return ModeDestructive
	}
	return ModeIncremental
}

// ImportBatch merges one ingested batch into the registry and funnels
// the result through the persistence contract: local store first,
// remote mirror after, both best-effort.
func (r *Registry) ImportBatch(ctx context.Context, batch *pipeline.Batch, mode Mode) error {
	if batch == nil {
		return fmt.Errorf("ImportBatch: nil batch")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch mode {
	case ModeDestructive:
		r.owners = batch.Owners()
		r.files = batch.Files()
	default:
		r.owners = overlayByKey(r.owners, batch.Owners(), func(o domain.Owner) string { return o.NICKey })
		r.files = overlayByKey(r.files, batch.Files(), func(f domain.PropertyFile) string { return f.FileNo })
	}

	r.log.Info().
		Str("mode", string(mode)).
		Int("batch_owners", batch.OwnerCount()).
		Int("batch_files", batch.FileCount()).
		Int("owners", len(r.owners)).
		Int("files", len(r.files)).
		Msg("Merged ingested batch")

	r.persistOwners(ctx)
	r.persistFiles(ctx)
	return nil
}

// overlayByKey builds the union of existing and incoming keyed by the
// natural key. Entities already present keep their position and are
// replaced wholesale when the incoming batch carries the same key; new
// keys are appended in batch order.
func overlayByKey[T any](existing, incoming []T, key func(T) string) []T {
	index := make(map[string]int, len(existing))
	merged := make([]T, len(existing))
	copy(merged, existing)
	for i, e := range existing {
		index[key(e)] = i
	}

	for _, in := range incoming {
		if i, ok := index[key(in)]; ok {
			merged[i] = in
			continue
		}
		index[key(in)] = len(merged)
		merged = append(merged, in)
	}
	return merged
}
