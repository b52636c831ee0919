package pipeline

import (
	"github.com/dvloznov/property-registry/internal/domain"
)

// Batch is the output of one ingestion pass: owners keyed by
// normalized identity number and property files keyed by file code.
// Both collections preserve first-encounter order, which downstream
// merging relies on.
type Batch struct {
	ownerKeys []string
	owners    map[string]*domain.Owner

	fileKeys []string
	files    map[string]*domain.PropertyFile
}

func newBatch() *Batch {
	return &Batch{
		owners: make(map[string]*domain.Owner),
		files:  make(map[string]*domain.PropertyFile),
	}
}

func (b *Batch) owner(key string) (*domain.Owner, bool) {
	o, ok := b.owners[key]
	return o, ok
}

func (b *Batch) putOwner(key string, o *domain.Owner) {
	if _, exists := b.owners[key]; !exists {
		b.ownerKeys = append(b.ownerKeys, key)
	}
	b.owners[key] = o
}

func (b *Batch) file(key string) (*domain.PropertyFile, bool) {
	f, ok := b.files[key]
	return f, ok
}

func (b *Batch) putFile(key string, f *domain.PropertyFile) {
	if _, exists := b.files[key]; !exists {
		b.fileKeys = append(b.fileKeys, key)
	}
	b.files[key] = f
}

// Owners returns the batch's owners in first-encounter order.
func (b *Batch) Owners() []domain.Owner {
	out := make([]domain.Owner, 0, len(b.ownerKeys))
	for _, key := range b.ownerKeys {
		out = append(out, *b.owners[key])
	}
	return out
}

// Files returns the batch's property files in first-encounter order.
func (b *Batch) Files() []domain.PropertyFile {
	out := make([]domain.PropertyFile, 0, len(b.fileKeys))
	for _, key := range b.fileKeys {
		out = append(out, *b.files[key])
	}
	return out
}

// OwnerCount reports the number of distinct owners in the batch.
func (b *Batch) OwnerCount() int { return len(b.ownerKeys) }

// FileCount reports the number of distinct property files in the batch.
func (b *Batch) FileCount() int { return len(b.fileKeys) }
