package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// Dialect holds the statements that differ between SQL servers. Both dialects
// share the schema created by the migrations in internal/database.
type Dialect struct {
	Name string

	getEntity    string
	allEntities  string
	insertEntity string
	updateEntity string
	deleteEntity string
	insertLink   string
	deleteLink   string
	dropPlace    string
	dropAmenity  string
	// linksFor builds the batch link lookup for a set of place ids.
	linksFor func(placeIDs []string) (string, []any)
}

// MySQL targets MySQL 8 through go-sql-driver/mysql. The DSN must set
// parseTime=true.
var MySQL = Dialect{
	Name:         "mysql",
	getEntity:    `SELECT created_at, updated_at, attributes FROM entities WHERE kind = ? AND id = ?`,
	allEntities:  `SELECT id, created_at, updated_at, attributes FROM entities WHERE kind = ? ORDER BY created_at, id`,
	insertEntity: `INSERT INTO entities (kind, id, created_at, updated_at, attributes) VALUES (?, ?, ?, ?, ?)`,
	updateEntity: `UPDATE entities SET updated_at = ?, attributes = ? WHERE kind = ? AND id = ?`,
	deleteEntity: `DELETE FROM entities WHERE kind = ? AND id = ?`,
	insertLink:   `INSERT IGNORE INTO place_amenity (place_id, amenity_id, created_at) VALUES (?, ?, ?)`,
	deleteLink:   `DELETE FROM place_amenity WHERE place_id = ? AND amenity_id = ?`,
	dropPlace:    `DELETE FROM place_amenity WHERE place_id = ?`,
	dropAmenity:  `DELETE FROM place_amenity WHERE amenity_id = ?`,
	linksFor: func(placeIDs []string) (string, []any) {
		args := make([]any, len(placeIDs))
		for i, id := range placeIDs {
			args[i] = id
		}
		marks := strings.TrimSuffix(strings.Repeat("?,", len(placeIDs)), ",")
		return `SELECT place_id, amenity_id FROM place_amenity WHERE place_id IN (` + marks + `) ORDER BY seq`, args
	},
}

// Postgres targets PostgreSQL through the pgx stdlib driver.
var Postgres = Dialect{
	Name:         "postgres",
	getEntity:    `SELECT created_at, updated_at, attributes FROM entities WHERE kind = $1 AND id = $2`,
	allEntities:  `SELECT id, created_at, updated_at, attributes FROM entities WHERE kind = $1 ORDER BY created_at, id`,
	insertEntity: `INSERT INTO entities (kind, id, created_at, updated_at, attributes) VALUES ($1, $2, $3, $4, $5)`,
	updateEntity: `UPDATE entities SET updated_at = $1, attributes = $2 WHERE kind = $3 AND id = $4`,
	deleteEntity: `DELETE FROM entities WHERE kind = $1 AND id = $2`,
	insertLink:   `INSERT INTO place_amenity (place_id, amenity_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
	deleteLink:   `DELETE FROM place_amenity WHERE place_id = $1 AND amenity_id = $2`,
	dropPlace:    `DELETE FROM place_amenity WHERE place_id = $1`,
	dropAmenity:  `DELETE FROM place_amenity WHERE amenity_id = $1`,
	linksFor: func(placeIDs []string) (string, []any) {
		return `SELECT place_id, amenity_id FROM place_amenity WHERE place_id = ANY($1) ORDER BY seq`, []any{pq.Array(placeIDs)}
	},
}

// DialectFor maps a driver name to its dialect.
func DialectFor(name string) (Dialect, bool) {
	switch name {
	case MySQL.Name:
		return MySQL, true
	case Postgres.Name, "pgx":
		return Postgres, true
	}
	return Dialect{}, false
}

type sqlEngine struct {
	db *sql.DB
	d  Dialect
}

// NewSQL returns a provider over db. The provider owns db and closes it.
func NewSQL(db *sql.DB, d Dialect) *Provider {
	return &Provider{name: d.Name, eng: &sqlEngine{db: db, d: d}}
}

func (s *sqlEngine) get(ctx context.Context, kind model.Kind, id string) (*model.Entity, error) {
	var (
		created, updated time.Time
		raw              []byte
	)
	err := s.db.QueryRowContext(ctx, s.d.getEntity, string(kind), id).Scan(&created, &updated, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	attrs, err := decodeAttrs(raw)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return model.Restore(kind, id, created, updated, attrs), nil
}

func (s *sqlEngine) all(ctx context.Context, kind model.Kind) ([]*model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, s.d.allEntities, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]*model.Entity, 0)
	for rows.Next() {
		var (
			id               string
			created, updated time.Time
			raw              []byte
		)
		if err := rows.Scan(&id, &created, &updated, &raw); err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		attrs, err := decodeAttrs(raw)
		if err != nil {
			return nil, fmt.Errorf("list %s: %s: %w", kind, id, err)
		}
		out = append(out, model.Restore(kind, id, created, updated, attrs))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	model.SortByCreation(out)
	return out, nil
}

func (s *sqlEngine) links(ctx context.Context, placeIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}
	q, args := s.d.linksFor(placeIDs)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid, aid string
		if err := rows.Scan(&pid, &aid); err != nil {
			return nil, fmt.Errorf("load links: %w", err)
		}
		out[pid] = append(out[pid], aid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return out, nil
}

func (s *sqlEngine) commit(ctx context.Context, cs *changeset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, e := range cs.inserts {
		raw, merr := json.Marshal(e.Attributes())
		if merr != nil {
			return fmt.Errorf("encode %s %s: %w", e.Kind, e.ID, merr)
		}
		if _, err = tx.ExecContext(ctx, s.d.insertEntity, string(e.Kind), e.ID, e.CreatedAt, e.UpdatedAt, string(raw)); err != nil {
			return fmt.Errorf("insert %s %s: %w", e.Kind, e.ID, err)
		}
	}
	for _, e := range cs.updates {
		raw, merr := json.Marshal(e.Attributes())
		if merr != nil {
			return fmt.Errorf("encode %s %s: %w", e.Kind, e.ID, merr)
		}
		res, xerr := tx.ExecContext(ctx, s.d.updateEntity, e.UpdatedAt, string(raw), string(e.Kind), e.ID)
		if xerr != nil {
			err = fmt.Errorf("update %s %s: %w", e.Kind, e.ID, xerr)
			return err
		}
		// rows matched, see ClientFoundRows in database.OpenMySQL
		n, xerr := res.RowsAffected()
		if xerr != nil {
			err = fmt.Errorf("update %s %s: %w", e.Kind, e.ID, xerr)
			return err
		}
		if n == 0 {
			err = fmt.Errorf("update %s %s: %w", e.Kind, e.ID, ErrNotFound)
			return err
		}
	}
	now := model.Now()
	for _, op := range cs.linkOps {
		if op.add {
			_, err = tx.ExecContext(ctx, s.d.insertLink, op.placeID, op.amenityID, now)
		} else {
			_, err = tx.ExecContext(ctx, s.d.deleteLink, op.placeID, op.amenityID)
		}
		if err != nil {
			return fmt.Errorf("link %s %s: %w", op.placeID, op.amenityID, err)
		}
	}
	for _, r := range cs.deletes {
		switch r.kind {
		case model.KindPlace:
			_, err = tx.ExecContext(ctx, s.d.dropPlace, r.id)
		case model.KindAmenity:
			_, err = tx.ExecContext(ctx, s.d.dropAmenity, r.id)
		}
		if err != nil {
			return fmt.Errorf("unlink %s %s: %w", r.kind, r.id, err)
		}
		if _, err = tx.ExecContext(ctx, s.d.deleteEntity, string(r.kind), r.id); err != nil {
			return fmt.Errorf("delete %s %s: %w", r.kind, r.id, err)
		}
	}
	return tx.Commit()
}

func (s *sqlEngine) close() error { return s.db.Close() }

func decodeAttrs(raw []byte) (map[string]any, error) {
	attrs := map[string]any{}
	if len(raw) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}
