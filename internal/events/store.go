// Package events persists the switching run: the append-only switch-event
// log, per-camera usage counters and run sessions, backed by SQLite.
package events

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store wraps the SQLite database holding switch events and usage counters.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open events db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp runs all pending migrations from the embedded sources.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	// Note: m is not closed here because that would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Session is one recorded switching run.
type Session struct {
	SessionID   string
	StartCamera switcher.CameraID
	Note        string
	StartedAt   time.Time
}

// BeginSession records the start of a run.
func (s *Store) BeginSession(sessionID string, startCamera switcher.CameraID, note string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, start_camera, note) VALUES (?, ?, ?)`,
		sessionID, int(startCamera), note,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Sessions returns recorded sessions, newest first.
func (s *Store) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT session_id, start_camera, COALESCE(note, ''), started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var cam int
		if err := rows.Scan(&sess.SessionID, &cam, &sess.Note, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartCamera = switcher.CameraID(cam)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// InsertSwitchEvent appends one switch event.
func (s *Store) InsertSwitchEvent(ev switcher.SwitchEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO switch_events (session_id, frame, from_cam, to_cam, zone, conf, reason, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Frame, int(ev.FromCam), int(ev.ToCam), ev.Zone, ev.Conf, ev.Reason, ev.At,
	)
	if err != nil {
		return fmt.Errorf("insert switch event: %w", err)
	}
	return nil
}

// ListSwitchEvents returns the events of a session in frame order. A limit
// of zero or less returns every event.
func (s *Store) ListSwitchEvents(sessionID string, limit int) ([]switcher.SwitchEvent, error) {
	if limit <= 0 {
		limit = -1 // sqlite treats a negative LIMIT as unbounded
	}
	rows, err := s.db.Query(
		`SELECT frame, from_cam, to_cam, zone, conf, COALESCE(reason, ''), at
		 FROM switch_events WHERE session_id = ? ORDER BY frame ASC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query switch events: %w", err)
	}
	defer rows.Close()

	var out []switcher.SwitchEvent
	for rows.Next() {
		var ev switcher.SwitchEvent
		var from, to int
		if err := rows.Scan(&ev.Frame, &from, &to, &ev.Zone, &ev.Conf, &ev.Reason, &ev.At); err != nil {
			return nil, fmt.Errorf("scan switch event: %w", err)
		}
		ev.SessionID = sessionID
		ev.FromCam = switcher.CameraID(from)
		ev.ToCam = switcher.CameraID(to)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// UpsertCameraUsage records the cumulative frame count for one camera.
func (s *Store) UpsertCameraUsage(sessionID string, cam switcher.CameraID, frames int64) error {
	_, err := s.db.Exec(
		`INSERT INTO camera_usage (session_id, camera, frames) VALUES (?, ?, ?)
		 ON CONFLICT(session_id, camera) DO UPDATE SET frames = excluded.frames`,
		sessionID, int(cam), frames,
	)
	if err != nil {
		return fmt.Errorf("upsert camera usage: %w", err)
	}
	return nil
}

// CameraUsage returns the per-camera frame counters of a session.
func (s *Store) CameraUsage(sessionID string) (map[switcher.CameraID]int64, error) {
	rows, err := s.db.Query(
		`SELECT camera, frames FROM camera_usage WHERE session_id = ? ORDER BY camera ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query camera usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[switcher.CameraID]int64)
	for rows.Next() {
		var cam int
		var frames int64
		if err := rows.Scan(&cam, &frames); err != nil {
			return nil, fmt.Errorf("scan camera usage: %w", err)
		}
		usage[switcher.CameraID(cam)] = frames
	}
	return usage, rows.Err()
}

// SwitchGaps returns the frame deltas between consecutive switch events of a
// session, in order. Used for inter-switch statistics.
func (s *Store) SwitchGaps(sessionID string) ([]float64, error) {
	evs, err := s.ListSwitchEvents(sessionID, 0)
	if err != nil {
		return nil, err
	}
	if len(evs) < 2 {
		return nil, nil
	}
	gaps := make([]float64, 0, len(evs)-1)
	for i := 1; i < len(evs); i++ {
		gaps = append(gaps, float64(evs[i].Frame-evs[i-1].Frame))
	}
	return gaps, nil
}
