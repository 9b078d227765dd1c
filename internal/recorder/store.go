package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/env"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id    TEXT PRIMARY KEY,
	catalog       TEXT NOT NULL,
	geometry_json TEXT NOT NULL,
	euler         INTEGER NOT NULL,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transitions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id   TEXT NOT NULL,
	step         INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	action_json  TEXT,
	reward       REAL NOT NULL,
	done         INTEGER NOT NULL,
	pointer_x    REAL NOT NULL,
	pointer_y    REAL NOT NULL,
	view_state   TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	UNIQUE (episode_id, step),
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);
`

// #endregion schema

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store is an append-only SQLite log of environment transitions.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for callers sharing the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region begin-episode
// BeginEpisode opens a new episode for cat and stores tr as its step-0 row. The
// catalog variant and geometry are kept so the episode can be read back against
// the same vocabulary.
func (s *Store) BeginEpisode(cat *catalog.Catalog, euler bool, tr env.Transition) (Episode, error) {
	ep := Episode{
		ID:        uuid.New().String(),
		Catalog:   cat.Variant().String(),
		Geometry:  cat.Geometry(),
		Euler:     euler,
		StartedAt: time.Now().UTC(),
	}
	geom, err := json.Marshal(ep.Geometry)
	if err != nil {
		return Episode{}, fmt.Errorf("marshal geometry: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Episode{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO episodes (episode_id, catalog, geometry_json, euler, started_at) VALUES (?, ?, ?, ?, ?)`,
		ep.ID, ep.Catalog, string(geom), euler, ep.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Episode{}, fmt.Errorf("insert episode: %w", err)
	}

	tr.Step = 0
	if err := insertTransition(tx, ep.ID, KindReset, tr, ep.StartedAt); err != nil {
		return Episode{}, err
	}
	if err := tx.Commit(); err != nil {
		return Episode{}, fmt.Errorf("commit: %w", err)
	}
	return ep, nil
}

// #endregion begin-episode

// #region append
// Append stores one step of an open episode.
func (s *Store) Append(episodeID string, tr env.Transition) error {
	kind := KindDiscrete
	if tr.Action.Continuous != nil {
		kind = KindContinuous
	}
	return insertTransition(s.db, episodeID, kind, tr, time.Now().UTC())
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertTransition(db execer, episodeID, kind string, tr env.Transition, at time.Time) error {
	var actionJSON any
	if tr.Action.Continuous != nil || tr.Action.Token != nil {
		data, err := json.Marshal(tr.Action)
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		actionJSON = string(data)
	}

	viewJSON := "{}"
	if tr.Document != nil {
		data, err := tr.Document.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshal view state: %w", err)
		}
		viewJSON = string(data)
	}

	_, err := db.Exec(
		`INSERT INTO transitions (episode_id, step, kind, action_json, reward, done, pointer_x, pointer_y, view_state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episodeID, tr.Step, kind, actionJSON, tr.Reward, tr.Done,
		tr.Pointer.X, tr.Pointer.Y, viewJSON, at.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert transition %s/%d: %w", episodeID, tr.Step, err)
	}
	return nil
}

// #endregion append

// #region attach
// Attach installs reset and transition hooks on opts so every reset opens a new
// episode and every step is appended to it.
func (s *Store) Attach(opts *env.Options, cat *catalog.Catalog) {
	var current string
	prevReset, prevTransition := opts.OnReset, opts.OnTransition

	opts.OnReset = func(tr env.Transition) error {
		if prevReset != nil {
			if err := prevReset(tr); err != nil {
				return err
			}
		}
		ep, err := s.BeginEpisode(cat, opts.EulerAngles, tr)
		if err != nil {
			return err
		}
		current = ep.ID
		return nil
	}
	opts.OnTransition = func(tr env.Transition) error {
		if prevTransition != nil {
			if err := prevTransition(tr); err != nil {
				return err
			}
		}
		if current == "" {
			return fmt.Errorf("append step %d: no open episode", tr.Step)
		}
		return s.Append(current, tr)
	}
}

// #endregion attach

// #region list-episodes
const episodeColumns = `e.episode_id, e.catalog, e.geometry_json, e.euler, e.started_at,
	(SELECT COUNT(*) FROM transitions t WHERE t.episode_id = e.episode_id AND t.step > 0)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (Episode, error) {
	var ep Episode
	var geom, started string
	if err := row.Scan(&ep.ID, &ep.Catalog, &geom, &ep.Euler, &started, &ep.Steps); err != nil {
		return Episode{}, err
	}
	if err := json.Unmarshal([]byte(geom), &ep.Geometry); err != nil {
		return Episode{}, fmt.Errorf("episode %s geometry: %w", ep.ID, err)
	}
	ep.StartedAt, _ = time.Parse(timeLayout, started)
	return ep, nil
}

// ListEpisodes returns the most recent episodes with their step counts.
func (s *Store) ListEpisodes(limit int) ([]Episode, error) {
	rows, err := s.db.Query(
		`SELECT `+episodeColumns+`
		 FROM episodes e ORDER BY e.started_at DESC, e.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// GetEpisode looks up one episode.
func (s *Store) GetEpisode(id string) (Episode, error) {
	ep, err := scanEpisode(s.db.QueryRow(
		`SELECT `+episodeColumns+` FROM episodes e WHERE e.episode_id = ?`, id,
	))
	if err != nil {
		return Episode{}, fmt.Errorf("get episode %s: %w", id, err)
	}
	return ep, nil
}

// #endregion list-episodes

// #region transitions
// Transitions returns every row of an episode in step order, reset first.
func (s *Store) Transitions(episodeID string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, step, kind, action_json, reward, done, pointer_x, pointer_y, view_state, created_at
		 FROM transitions WHERE episode_id = ? ORDER BY step ASC`, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var actionJSON sql.NullString
		var created string
		if err := rows.Scan(&rec.EpisodeID, &rec.Step, &rec.Kind, &actionJSON, &rec.Reward, &rec.Done,
			&rec.Pointer.X, &rec.Pointer.Y, &rec.ViewState, &created); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if actionJSON.Valid {
			if err := json.Unmarshal([]byte(actionJSON.String), &rec.Action); err != nil {
				return nil, fmt.Errorf("unmarshal action at step %d: %w", rec.Step, err)
			}
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion transitions
