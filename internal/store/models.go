package store

import "time"

// User owns files and app passwords.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// File stores raw content and metadata for a DAV file resource. ETag is the
// hex SHA-256 of Content.
type File struct {
	ID           int64
	UserID       int64
	Name         string
	Content      []byte
	ContentType  string
	ETag         string
	Size         int64
	CreatedAt    time.Time
	LastModified time.Time
}

// AppPassword is a per-client credential for DAV access.
type AppPassword struct {
	ID         int64
	UserID     int64
	Label      string
	TokenHash  string
	CreatedAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
}
