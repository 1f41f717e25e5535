package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_id")()
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_username")()
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, username string) (*User, error) {
	defer observeDB(ctx, "db.users.create")()
	var u User
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1)
		 ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		 RETURNING id, username, created_at`, username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// fileRepo implements FileRepository.
type fileRepo struct {
	pool *pgxpool.Pool
}

func (r *fileRepo) Get(ctx context.Context, userID int64, name string) (*File, error) {
	defer observeDB(ctx, "db.files.get")()
	var f File
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, content, content_type, etag, size, created_at, last_modified
		 FROM files WHERE user_id = $1 AND name = $2`, userID, name,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.Content, &f.ContentType, &f.ETag, &f.Size, &f.CreatedAt, &f.LastModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) ListByUser(ctx context.Context, userID int64) ([]File, error) {
	defer observeDB(ctx, "db.files.list_by_user")()
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, content_type, etag, size, created_at, last_modified
		 FROM files WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.ContentType, &f.ETag, &f.Size, &f.CreatedAt, &f.LastModified); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *fileRepo) Upsert(ctx context.Context, file File) (*File, error) {
	defer observeDB(ctx, "db.files.upsert")()
	var f File
	err := r.pool.QueryRow(ctx,
		`INSERT INTO files (user_id, name, content, content_type, etag, size)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, name) DO UPDATE SET
		   content = EXCLUDED.content,
		   content_type = EXCLUDED.content_type,
		   etag = EXCLUDED.etag,
		   size = EXCLUDED.size,
		   last_modified = now()
		 RETURNING id, user_id, name, content, content_type, etag, size, created_at, last_modified`,
		file.UserID, file.Name, file.Content, file.ContentType, file.ETag, file.Size,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.Content, &f.ContentType, &f.ETag, &f.Size, &f.CreatedAt, &f.LastModified)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) Delete(ctx context.Context, userID int64, name string) error {
	defer observeDB(ctx, "db.files.delete")()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM files WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRange splices body into the stored content. The row is locked for
// the duration of the transaction, so concurrent patches to the same file
// serialize rather than interleave.
func (r *fileRepo) ApplyRange(ctx context.Context, userID int64, name string, body []byte, op RangeOp, offset int64) (string, error) {
	defer observeDB(ctx, "db.files.apply_range")()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	var content []byte
	err = tx.QueryRow(ctx,
		`SELECT id, content FROM files WHERE user_id = $1 AND name = $2 FOR UPDATE`,
		userID, name,
	).Scan(&id, &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	start := rangeOffset(op, offset, int64(len(content)))
	updated := spliceRange(content, body, start)
	etag := fmt.Sprintf("%x", sha256.Sum256(updated))

	if _, err := tx.Exec(ctx,
		`UPDATE files SET content = $1, etag = $2, size = $3, last_modified = now() WHERE id = $4`,
		updated, etag, int64(len(updated)), id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return etag, nil
}

// appPasswordRepo implements AppPasswordRepository.
type appPasswordRepo struct {
	pool *pgxpool.Pool
}

func (r *appPasswordRepo) Create(ctx context.Context, token AppPassword) (*AppPassword, error) {
	defer observeDB(ctx, "db.app_passwords.create")()
	var t AppPassword
	err := r.pool.QueryRow(ctx,
		`INSERT INTO app_passwords (user_id, label, token_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, label, token_hash, created_at, revoked_at, last_used_at`,
		token.UserID, token.Label, token.TokenHash,
	).Scan(&t.ID, &t.UserID, &t.Label, &t.TokenHash, &t.CreatedAt, &t.RevokedAt, &t.LastUsedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *appPasswordRepo) FindValidByUser(ctx context.Context, userID int64) ([]AppPassword, error) {
	defer observeDB(ctx, "db.app_passwords.find_valid")()
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, label, token_hash, created_at, revoked_at, last_used_at
		 FROM app_passwords WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []AppPassword
	for rows.Next() {
		var t AppPassword
		if err := rows.Scan(&t.ID, &t.UserID, &t.Label, &t.TokenHash, &t.CreatedAt, &t.RevokedAt, &t.LastUsedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *appPasswordRepo) Revoke(ctx context.Context, id int64) error {
	defer observeDB(ctx, "db.app_passwords.revoke")()
	_, err := r.pool.Exec(ctx,
		`UPDATE app_passwords SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (r *appPasswordRepo) TouchLastUsed(ctx context.Context, id int64) error {
	defer observeDB(ctx, "db.app_passwords.touch_last_used")()
	_, err := r.pool.Exec(ctx,
		`UPDATE app_passwords SET last_used_at = now() WHERE id = $1`, id)
	return err
}
