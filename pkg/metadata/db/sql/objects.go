// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/google/uuid"
)

// ObjectColumns is the standard column list for object queries.
const ObjectColumns = `id, bucket, object_key, node_name, path, size, created_at`

// objectUpdateColumns are overwritten when an upload replaces an existing record
var objectUpdateColumns = []string{"node_name", "path", "size", "created_at"}

func upsertObjectQuery(d Dialect) string {
	return fmt.Sprintf(`INSERT INTO objects (%s) VALUES (%s)%s%s`,
		ObjectColumns,
		d.Placeholders(7),
		d.UpsertSuffix("bucket, object_key", objectUpdateColumns),
		d.Returning("id"),
	)
}

func (s *Store) FindObject(ctx context.Context, bucket, key string) (*types.ObjectRecord, error) {
	row := s.QueryRow(ctx, `
		SELECT `+ObjectColumns+`
		FROM objects
		WHERE bucket = $1 AND object_key = $2
	`, bucket, key)

	rec, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find object: %w", err)
	}
	return rec, nil
}

func (s *Store) UpsertObject(ctx context.Context, rec *types.ObjectRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var nodeName sql.NullString
	if rec.NodeName != nil {
		nodeName = sql.NullString{String: *rec.NodeName, Valid: true}
	}

	args := []any{
		rec.ID.String(),
		rec.Bucket,
		rec.Key,
		nodeName,
		rec.Path,
		rec.Size,
		rec.CreatedAt.UTC(),
	}

	// An overwrite keeps the existing row ID; report it back in rec.ID
	var id uuid.UUID
	if s.dialect.Returning("id") != "" {
		if err := s.QueryRow(ctx, upsertObjectQuery(s.dialect), args...).Scan(&id); err != nil {
			return fmt.Errorf("upsert object: %w", err)
		}
	} else {
		if _, err := s.Exec(ctx, upsertObjectQuery(s.dialect), args...); err != nil {
			return fmt.Errorf("upsert object: %w", err)
		}
		err := s.QueryRow(ctx, `
			SELECT id FROM objects WHERE bucket = $1 AND object_key = $2
		`, rec.Bucket, rec.Key).Scan(&id)
		if err != nil {
			return fmt.Errorf("read upserted object id: %w", err)
		}
	}
	rec.ID = id
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.Exec(ctx, `
		DELETE FROM objects WHERE bucket = $1 AND object_key = $2
	`, bucket, key)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Store) DeleteBucketObjects(ctx context.Context, bucket string) (int64, error) {
	result, err := s.Exec(ctx, `
		DELETE FROM objects WHERE bucket = $1
	`, bucket)
	if err != nil {
		return 0, fmt.Errorf("delete bucket objects: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) CountObjects(ctx context.Context, bucket string) (int64, error) {
	var n int64
	err := s.QueryRow(ctx, `
		SELECT COUNT(*) FROM objects WHERE bucket = $1
	`, bucket).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return n, nil
}

func scanObject(row scanner) (*types.ObjectRecord, error) {
	var (
		rec      types.ObjectRecord
		nodeName sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Bucket,
		&rec.Key,
		&nodeName,
		&rec.Path,
		&rec.Size,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if nodeName.Valid {
		rec.NodeName = &nodeName.String
	}
	return &rec, nil
}
