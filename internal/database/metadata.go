package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metadata"
)

var _ metadata.Store = (*Database)(nil)

// LookupMetadata returns the cached result for path together with the
// stamp it was stored under. ok is false when nothing is cached.
func (d *Database) LookupMetadata(ctx context.Context, path string) (metadata.FileStamp, metadata.Result, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		stamp      = metadata.FileStamp{Path: path}
		res        = metadata.Result{Path: path}
		modTime    int64
		container  string
		kind       int
		fieldsJSON string
	)

	err := d.db.QueryRowContext(ctx, `
		SELECT size, mod_time, container, kind, positive, negative, generation_info, fields
		FROM image_metadata WHERE path = ?
	`, path).Scan(&stamp.Size, &modTime, &container, &kind,
		&res.Triple.Positive, &res.Triple.Negative, &res.Triple.GenerationInfo, &fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.FileStamp{}, metadata.Result{}, false, nil
	}
	if err != nil {
		return metadata.FileStamp{}, metadata.Result{}, false, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &res.Fields); err != nil {
		return metadata.FileStamp{}, metadata.Result{}, false, fmt.Errorf("corrupt fields for %s: %w", path, err)
	}
	stamp.ModTime = time.Unix(0, modTime)
	res.Container = mediatypes.Container(container)
	res.Kind = metadata.Kind(kind)

	return stamp, res, true, nil
}

// SaveMetadata stores res under stamp, replacing any previous entry.
// Error results are rejected.
func (d *Database) SaveMetadata(ctx context.Context, stamp metadata.FileStamp, res metadata.Result) error {
	if res.Kind == metadata.KindError {
		return fmt.Errorf("refusing to cache failed extraction for %s", stamp.Path)
	}

	fields := res.Fields
	if fields == nil {
		fields = []metadata.Field{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO image_metadata (path, size, mod_time, container, kind, positive, negative, generation_info, fields, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			container = excluded.container,
			kind = excluded.kind,
			positive = excluded.positive,
			negative = excluded.negative,
			generation_info = excluded.generation_info,
			fields = excluded.fields,
			updated_at = excluded.updated_at
	`, stamp.Path, stamp.Size, stamp.ModTime.UnixNano(), string(res.Container), int(res.Kind),
		res.Triple.Positive, res.Triple.Negative, res.Triple.GenerationInfo, string(fieldsJSON))
	return err
}

// DeleteMetadata drops cached entries for paths, typically after they were
// moved or trashed. It returns the number of rows removed.
func (d *Database) DeleteMetadata(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM image_metadata WHERE path = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total int64
	for _, p := range paths {
		r, err := stmt.ExecContext(ctx, p)
		if err != nil {
			return 0, err
		}
		n, _ := r.RowsAffected()
		total += n
	}
	return total, tx.Commit()
}

// CountMetadata returns the number of cached entries.
func (d *Database) CountMetadata(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM image_metadata").Scan(&n)
	return n, err
}
