package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one audited deletion.
type Record struct {
	// ID is a generated unique identifier for the record.
	ID string `json:"id"`

	// RootName identifies the managed root the entry belonged to.
	RootName string `json:"root_name"`

	// Path is the absolute path that was deleted.
	Path string `json:"path"`

	// Kind is the object classification at deletion time, "file" or
	// "directory".
	Kind string `json:"kind"`

	// SizeBytes is the byte length the entry had when it was deleted.
	// Zero for directories.
	SizeBytes int64 `json:"size_bytes"`

	// ModTime is the last modification time the entry had on disk.
	ModTime time.Time `json:"mod_time"`

	// DeletedAt is when the deletion happened.
	DeletedAt time.Time `json:"deleted_at"`
}

// NewRecord builds a Record with a fresh ID and DeletedAt set to now.
func NewRecord(rootName, path, kind string, sizeBytes int64, modTime time.Time) *Record {
	return &Record{
		ID:        uuid.NewString(),
		RootName:  rootName,
		Path:      path,
		Kind:      kind,
		SizeBytes: sizeBytes,
		ModTime:   modTime,
		DeletedAt: time.Now(),
	}
}

// Store persists deletion records.
type Store interface {
	// Append adds a record to the trail.
	Append(ctx context.Context, rec *Record) error

	// Recent returns up to limit records for a root, newest first. An
	// empty rootName matches all roots.
	Recent(ctx context.Context, rootName string, limit int) ([]*Record, error)

	// Count returns the number of stored records for a root. An empty
	// rootName matches all roots.
	Count(ctx context.Context, rootName string) (int64, error)

	// Cleanup removes records deleted before the cutoff and returns how
	// many were removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases the store's resources.
	Close() error
}
