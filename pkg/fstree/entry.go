package fstree

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Kind classifies a filesystem node. It is a closed set: anything that is
// neither a regular file nor a directory (sockets, devices, dangling
// symlinks) is reported by callers as an anomaly and never enters a tree.
type Kind int

const (
	// KindMissing means the path did not resolve to a file or directory
	// at the last stat.
	KindMissing Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindDirectory is a directory.
	KindDirectory
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "missing"
	}
}

// Entry is the cached identity of a single filesystem node: its path, leaf
// name, kind classification and the stat attributes relevant to aging.
//
// An Entry never fails construction; a path that does not exist simply
// classifies as KindMissing. The capture timestamp records when the
// classification was taken so callers can decide whether a re-stat is due.
type Entry struct {
	path       string
	name       string
	kind       Kind
	size       int64
	modTime    time.Time
	capturedAt time.Time
}

// NewEntry constructs an Entry by classifying path against the filesystem.
func NewEntry(path string) *Entry {
	e := &Entry{}
	e.SetPath(path)
	return e
}

// newEntryFromInfo constructs an Entry from an already-obtained FileInfo,
// avoiding a redundant stat during directory enumeration.
func newEntryFromInfo(path string, info fs.FileInfo) *Entry {
	e := &Entry{
		path:       path,
		name:       filepath.Base(path),
		capturedAt: time.Now(),
	}
	e.applyInfo(info)
	return e
}

// SetPath resets the entry to the given path and reclassifies it from a
// fresh stat. An empty path clears the entry.
func (e *Entry) SetPath(path string) {
	e.Clear()
	if path == "" {
		return
	}
	e.path = path
	e.name = filepath.Base(path)
	e.reclassify()
}

// Clear resets all fields to the unset state.
func (e *Entry) Clear() {
	*e = Entry{}
}

// Refresh re-stats the underlying object. When the object previously existed
// and still exists the stat attributes are updated in place; otherwise the
// entry is fully reclassified. Refresh is a no-op on a cleared entry.
func (e *Entry) Refresh() {
	if e.path == "" {
		return
	}
	if e.kind == KindMissing {
		e.reclassify()
		return
	}
	info, err := os.Lstat(e.path)
	e.capturedAt = time.Now()
	if err != nil {
		e.kind = KindMissing
		e.size = 0
		e.modTime = time.Time{}
		return
	}
	e.applyInfo(info)
}

// reclassify performs a full stat-based classification of the stored path.
func (e *Entry) reclassify() {
	e.capturedAt = time.Now()
	info, err := os.Lstat(e.path)
	if err != nil {
		e.kind = KindMissing
		e.size = 0
		e.modTime = time.Time{}
		return
	}
	e.applyInfo(info)
}

func (e *Entry) applyInfo(info fs.FileInfo) {
	switch {
	case info.IsDir():
		e.kind = KindDirectory
		e.size = 0
	case info.Mode().IsRegular():
		e.kind = KindFile
		e.size = info.Size()
	default:
		// Irregular object types are tolerated but never mirrored.
		e.kind = KindMissing
		e.size = 0
	}
	e.modTime = info.ModTime()
}

// Path returns the absolute path the entry was classified from.
func (e *Entry) Path() string { return e.path }

// Name returns the final path component.
func (e *Entry) Name() string { return e.name }

// Kind returns the last recorded classification.
func (e *Entry) Kind() Kind { return e.kind }

// IsFile reports whether the entry classified as a regular file.
func (e *Entry) IsFile() bool { return e.kind == KindFile }

// IsDirectory reports whether the entry classified as a directory.
func (e *Entry) IsDirectory() bool { return e.kind == KindDirectory }

// Exists reports whether the entry classified as anything at all.
func (e *Entry) Exists() bool { return e.kind != KindMissing }

// IsExistingFile is shorthand for Exists && IsFile.
func (e *Entry) IsExistingFile() bool { return e.kind == KindFile }

// IsExistingDirectory is shorthand for Exists && IsDirectory.
func (e *Entry) IsExistingDirectory() bool { return e.kind == KindDirectory }

// Length returns the byte length for an existing file and 0 otherwise.
func (e *Entry) Length() int64 {
	if e.kind != KindFile {
		return 0
	}
	return e.size
}

// ModTime returns the last recorded modification time.
func (e *Entry) ModTime() time.Time { return e.modTime }

// CapturedAt returns when the classification was last taken.
func (e *Entry) CapturedAt() time.Time { return e.capturedAt }

// Age returns now minus the recorded modification time, or zero for a
// cleared or missing entry.
func (e *Entry) Age() time.Duration {
	if e.modTime.IsZero() {
		return 0
	}
	return time.Since(e.modTime)
}

// OldestTime returns the earliest timestamp associated with the underlying
// object. For a regular file this is its stat time. Directories frequently
// lack a reliable own timestamp for aging purposes, so the caller-supplied
// fallback is returned when it is non-zero.
func (e *Entry) OldestTime(fallback time.Time) time.Time {
	if e.kind == KindFile {
		return e.modTime
	}
	if !fallback.IsZero() {
		return fallback
	}
	return e.modTime
}
