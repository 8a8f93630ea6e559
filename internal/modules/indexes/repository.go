package indexes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository stores index definitions as JSON documents keyed by id.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new index definition accessor
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "indexes").Logger(),
	}
}

// Save upserts a definition. The caller validates first; this only
// persists. CreatedAt survives updates, UpdatedAt always moves.
func (r *Repository) Save(ctx context.Context, def *Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}

	now := time.Now().Unix()
	enabled := 0
	if def.Enabled {
		enabled = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO index_definitions (id, name, data, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, def.ID, def.Name, string(data), enabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to save definition %s: %w", def.ID, err)
	}

	r.log.Info().
		Str("index_id", def.ID).
		Bool("enabled", def.Enabled).
		Msg("Saved index definition")
	return nil
}

// Get loads one definition by id.
func (r *Repository) Get(ctx context.Context, id string) (*Definition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, data, enabled, created_at, updated_at
		FROM index_definitions
		WHERE id = ?
	`, id)

	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load definition %s: %w", id, err)
	}
	return def, nil
}

// List returns definitions ordered by id. With enabledOnly set, disabled
// definitions are skipped.
func (r *Repository) List(ctx context.Context, enabledOnly bool) ([]*Definition, error) {
	query := `
		SELECT id, name, data, enabled, created_at, updated_at
		FROM index_definitions
	`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}
	return defs, nil
}

// SetEnabled flips a definition's participation in scheduled valuations.
func (r *Repository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	flag := 0
	if enabled {
		flag = 1
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE index_definitions SET enabled = ?, updated_at = ? WHERE id = ?
	`, flag, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update definition %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a definition.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM index_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete definition %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.log.Info().Str("index_id", id).Msg("Deleted index definition")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDefinition rebuilds a Definition from a row: the JSON document is
// the source of truth for the configuration, the columns override the
// identity and lifecycle fields.
func scanDefinition(row rowScanner) (*Definition, error) {
	var id, name, data string
	var enabled int
	var createdAt, updatedAt int64

	if err := row.Scan(&id, &name, &data, &enabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var def Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	def.ID = id
	def.Name = name
	def.Enabled = enabled == 1
	def.CreatedAt = time.Unix(createdAt, 0).UTC()
	def.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &def, nil
}
