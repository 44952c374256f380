// Package localstore keeps classified objects in a single SQLite file. It is
// the object store behind the classify command.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jacentio/classtree/hierarchy"
)

// ErrObjectNotFound is returned when tagging an object the file doesn't hold.
var ErrObjectNotFound = errors.New("classtree: object not found")

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL DEFAULT 'other',
	description TEXT NOT NULL DEFAULT '',
	class_tag   TEXT
);
CREATE INDEX IF NOT EXISTS idx_objects_class_tag ON objects(class_tag);
`

// Object is a stored object with its raw class tag.
type Object struct {
	ID          hierarchy.ObjectID   `json:"id"`
	Kind        hierarchy.ObjectKind `json:"kind"`
	Description string               `json:"description,omitempty"`

	// ClassTag is empty when the object is untagged.
	ClassTag string `json:"class_tag,omitempty"`
}

// Store is a SQLite-backed object store.
// It implements hierarchy.SyncAdapter and hierarchy.Describer.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	onChange func(ctx context.Context)
}

var (
	_ hierarchy.SyncAdapter = (*Store)(nil)
	_ hierarchy.Describer   = (*Store)(nil)
)

// Open opens or creates the store file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("object store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnChange sets the hook invoked by NotifyChanged.
func (s *Store) OnChange(fn func(ctx context.Context)) {
	s.onChange = fn
}

// PutObject inserts an object or updates its kind and description.
// An existing tag is kept.
func (s *Store) PutObject(ctx context.Context, obj Object) error {
	if obj.ID == "" {
		return fmt.Errorf("classtree: object id is required")
	}
	kind := hierarchy.ParseKind(string(obj.Kind))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (id, kind, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, description = excluded.description`,
		string(obj.ID), string(kind), obj.Description,
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", obj.ID, err)
	}
	return nil
}

// DeleteObject removes an object and reports whether it existed.
func (s *Store) DeleteObject(ctx context.Context, objectID hierarchy.ObjectID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, string(objectID))
	if err != nil {
		return false, fmt.Errorf("delete object %s: %w", objectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Objects returns every object ordered by id.
func (s *Store) Objects(ctx context.Context) ([]Object, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, description, class_tag FROM objects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Object
	for rows.Next() {
		var (
			obj      Object
			id, kind string
			tag      sql.NullString
		)
		if err := rows.Scan(&id, &kind, &obj.Description, &tag); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		obj.ID = hierarchy.ObjectID(id)
		obj.Kind = hierarchy.ParseKind(kind)
		obj.ClassTag = tag.String
		out = append(out, obj)
	}
	return out, rows.Err()
}

// Tags returns the class tag of every tagged object.
// Tags that are not valid class ids are logged and skipped.
func (s *Store) Tags(ctx context.Context) (map[hierarchy.ObjectID]hierarchy.ClassID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, class_tag FROM objects WHERE class_tag IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := make(map[hierarchy.ObjectID]hierarchy.ClassID)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		classID, err := uuid.Parse(tag)
		if err != nil {
			s.logger.Warn("skipping invalid class tag", "objectID", id, "tag", tag, "error", err)
			continue
		}
		tags[hierarchy.ObjectID(id)] = classID
	}
	return tags, rows.Err()
}

// ClearTags removes every class tag and returns how many were cleared.
func (s *Store) ClearTags(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE objects SET class_tag = NULL WHERE class_tag IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("clear tags: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// TagObject writes the class tag of an object, or clears it when classID is
// uuid.Nil.
func (s *Store) TagObject(ctx context.Context, objectID hierarchy.ObjectID, classID hierarchy.ClassID) error {
	var tag sql.NullString
	if classID != uuid.Nil {
		tag = sql.NullString{String: classID.String(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE objects SET class_tag = ? WHERE id = ?`, tag, string(objectID))
	if err != nil {
		return fmt.Errorf("tag object %s: %w", objectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, objectID)
	}
	return nil
}

// ObjectExists reports whether the file holds the object.
func (s *Store) ObjectExists(ctx context.Context, objectID hierarchy.ObjectID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM objects WHERE id = ?`, string(objectID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check object %s: %w", objectID, err)
	}
	return true, nil
}

// Describe returns the kind and description of an object.
func (s *Store) Describe(ctx context.Context, objectID hierarchy.ObjectID) (hierarchy.ObjectInfo, bool, error) {
	var kind, description string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, description FROM objects WHERE id = ?`, string(objectID),
	).Scan(&kind, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return hierarchy.ObjectInfo{}, false, nil
	}
	if err != nil {
		return hierarchy.ObjectInfo{}, false, fmt.Errorf("describe object %s: %w", objectID, err)
	}
	return hierarchy.ObjectInfo{
		ID:          objectID,
		Kind:        hierarchy.ParseKind(kind),
		Description: description,
	}, true, nil
}

// NotifyChanged invokes the OnChange hook, if any.
func (s *Store) NotifyChanged(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
