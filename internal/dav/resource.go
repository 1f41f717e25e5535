package dav

import (
	"context"
	"time"

	"github.com/jw6ventures/filedav/internal/store"
)

// Resource is a stored file as seen by the DAV layer.
type Resource interface {
	ETag() string
	Size() int64
	ContentType() string
	ModTime() time.Time
}

// RangeWriter is the legacy write capability: overwrite bytes at an absolute
// start offset. Resources exposing only this capability cannot serve append
// or suffix ranges.
type RangeWriter interface {
	Resource
	WriteRangeAt(ctx context.Context, body []byte, start int64) (string, error)
}

// PatchSpec describes a validated partial update. Start and End are
// meaningful for RangeStartBounded (End is always resolved by the time the
// spec reaches a resource); SuffixLength is meaningful for RangeSuffix.
type PatchSpec struct {
	Kind         RangeKind
	Start        int64
	End          int64
	SuffixLength int64
}

// Patcher is the rich write capability, covering all three range kinds.
// The returned string is the new content validator (ETag); it may be empty.
type Patcher interface {
	Resource
	ApplyPatch(ctx context.Context, body []byte, spec PatchSpec) (string, error)
}

// ResourceLookup resolves a DAV file path to a stored resource. It returns
// store.ErrNotFound when no resource exists at the path.
type ResourceLookup interface {
	Resolve(ctx context.Context, user *store.User, name string) (Resource, error)
}

// storeLookup is the default lookup, backed by the file repository. The
// capability decision is made here, once per resolution: stored files always
// carry the rich patch capability.
type storeLookup struct {
	files store.FileRepository
}

func (l *storeLookup) Resolve(ctx context.Context, user *store.User, name string) (Resource, error) {
	file, err := l.files.Get(ctx, user.ID, name)
	if err != nil {
		return nil, err
	}
	return &fileResource{file: file, files: l.files}, nil
}

// fileResource adapts a stored file row to the rich patch capability.
type fileResource struct {
	file  *store.File
	files store.FileRepository
}

func (f *fileResource) ETag() string        { return f.file.ETag }
func (f *fileResource) Size() int64         { return f.file.Size }
func (f *fileResource) ContentType() string { return f.file.ContentType }
func (f *fileResource) ModTime() time.Time  { return f.file.LastModified }

func (f *fileResource) ApplyPatch(ctx context.Context, body []byte, spec PatchSpec) (string, error) {
	var op store.RangeOp
	var offset int64
	switch spec.Kind {
	case RangeAppend:
		op = store.RangeAppend
	case RangeStartBounded:
		op = store.RangeWriteAt
		offset = spec.Start
	case RangeSuffix:
		op = store.RangeFromEnd
		offset = spec.SuffixLength
	}
	return f.files.ApplyRange(ctx, f.file.UserID, f.file.Name, body, op, offset)
}
