package store

import "context"

// RangeOp selects how ApplyRange addresses the write within a file.
type RangeOp int

const (
	// RangeWriteAt overwrites starting at an absolute offset; writes past
	// the current end grow the file, with any gap zero-filled.
	RangeWriteAt RangeOp = iota
	// RangeAppend writes after the current end of the file.
	RangeAppend
	// RangeFromEnd overwrites starting offset bytes before the current end
	// (clamped to the start of the file).
	RangeFromEnd
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username string) (*User, error)
}

// FileRepository handles file content storage.
type FileRepository interface {
	Get(ctx context.Context, userID int64, name string) (*File, error)
	ListByUser(ctx context.Context, userID int64) ([]File, error)
	Upsert(ctx context.Context, file File) (*File, error)
	Delete(ctx context.Context, userID int64, name string) error
	// ApplyRange splices body into the stored content under a row lock and
	// returns the new ETag. The offset is an absolute start for
	// RangeWriteAt, ignored for RangeAppend, and a distance from the end of
	// the file for RangeFromEnd.
	ApplyRange(ctx context.Context, userID int64, name string, body []byte, op RangeOp, offset int64) (string, error)
}

// AppPasswordRepository handles Basic Auth credential storage.
type AppPasswordRepository interface {
	Create(ctx context.Context, token AppPassword) (*AppPassword, error)
	FindValidByUser(ctx context.Context, userID int64) ([]AppPassword, error)
	Revoke(ctx context.Context, id int64) error
	TouchLastUsed(ctx context.Context, id int64) error
}
