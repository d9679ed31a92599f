package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/dynviz/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

// timeLayout has a fixed-width fraction so that stored timestamps sort as
// text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps recorded runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Run describes one recorded session.
type Run struct {
	ID         string
	Model      string
	Kind       string
	Controller string
	Timestep   float64
	Samples    int
	CreatedAt  time.Time
}

// Sample is one recorded snapshot.
type Sample struct {
	Time    float64
	Steps   uint64
	State   []float64
	Control []float64
	Energy  float64
}

// Open creates or opens the database at path, creating parent directories
// and the schema as needed. A leading ~ expands to the home directory.
func Open(path string) (*Store, error) {
	if path != "" && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			kind TEXT NOT NULL,
			controller TEXT NOT NULL DEFAULT '',
			timestep REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			time REAL NOT NULL,
			steps INTEGER NOT NULL,
			state TEXT NOT NULL,
			control TEXT NOT NULL,
			energy REAL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`)
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes a recording in one transaction and returns its id.
func (s *Store) Save(rec *Recorder) (string, error) {
	id := uuid.NewString()
	created := rec.started
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, model, kind, controller, timestep, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, rec.Model, rec.Kind, rec.Controller, rec.Timestep, created.UTC().Format(timeLayout),
	); err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, seq, time, steps, state, control, energy) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("storage: cannot prepare samples: %w", err)
	}
	defer stmt.Close()

	for i, smp := range rec.samples {
		if _, err := stmt.Exec(id, i, smp.Time, int64(smp.Steps), encodeVec(smp.State), encodeVec(smp.Control), smp.Energy); err != nil {
			return "", fmt.Errorf("storage: cannot save sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: cannot commit: %w", err)
	}
	return id, nil
}

const runColumns = `r.id, r.model, r.kind, r.controller, r.timestep, r.created_at,
	(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)`

// List returns every run, newest first.
func (s *Store) List() ([]Run, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM runs r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// Load returns one run's metadata. Unknown ids yield ErrNotFound.
func (s *Store) Load(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadSamples returns a run's samples in recording order.
func (s *Store) LoadSamples(id string) ([]Sample, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT time, steps, state, control, energy FROM samples WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			smp            Sample
			steps          int64
			state, control string
			energy         sql.NullFloat64
		)
		if err := rows.Scan(&smp.Time, &steps, &state, &control, &energy); err != nil {
			return nil, fmt.Errorf("storage: cannot scan sample: %w", err)
		}
		smp.Steps = uint64(steps)
		smp.Energy = energy.Float64
		if smp.State, err = decodeVec(state); err != nil {
			return nil, fmt.Errorf("storage: corrupt state: %w", err)
		}
		if smp.Control, err = decodeVec(control); err != nil {
			return nil, fmt.Errorf("storage: corrupt control: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return samples, nil
}

// Vectors are stored as space-separated text so that NaN and Inf survive.
func encodeVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func decodeVec(s string) ([]float64, error) {
	fields := strings.Fields(s)
	v := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		created string
	)
	if err := sc.Scan(&r.ID, &r.Model, &r.Kind, &r.Controller, &r.Timestep, &created, &r.Samples); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("storage: cannot scan run: %w", err)
	}
	if t, err := time.Parse(timeLayout, created); err == nil {
		r.CreatedAt = t
	}
	return r, nil
}

// DefaultMaxSamples bounds a recording's memory.
const DefaultMaxSamples = 50000

// Recorder accumulates snapshots on the presentation goroutine until the
// session ends. It is not safe for concurrent use.
//
// Once MaxSamples are held, every other sample is dropped and the recorder
// keeps only every second offered snapshot from then on, so a long session
// stays bounded while still covering its whole length. A MaxSamples below
// two disables the bound.
type Recorder struct {
	Model      string
	Kind       string
	Controller string
	Timestep   float64
	MaxSamples int

	started time.Time
	samples []Sample
	stride  int
	offered int
}

func NewRecorder(model, kind, controller string, timestep float64) *Recorder {
	return &Recorder{
		Model:      model,
		Kind:       kind,
		Controller: controller,
		Timestep:   timestep,
		MaxSamples: DefaultMaxSamples,
		started:    time.Now(),
		stride:     1,
	}
}

// Add copies the parts of snap worth keeping.
func (r *Recorder) Add(snap sim.Snapshot) {
	if r.stride < 1 {
		r.stride = 1
	}
	r.offered++
	if (r.offered-1)%r.stride != 0 {
		return
	}
	if r.MaxSamples > 1 && len(r.samples) >= r.MaxSamples {
		r.thin()
		if (r.offered-1)%r.stride != 0 {
			return
		}
	}
	r.samples = append(r.samples, Sample{
		Time:    snap.Time,
		Steps:   snap.Steps,
		State:   append([]float64(nil), snap.State...),
		Control: append([]float64(nil), snap.Control...),
		Energy:  snap.Energy,
	})
}

// thin keeps the even-indexed samples and doubles the stride.
func (r *Recorder) thin() {
	kept := r.samples[:0]
	for i := 0; i < len(r.samples); i += 2 {
		kept = append(kept, r.samples[i])
	}
	clear(r.samples[len(kept):])
	r.samples = kept
	r.stride *= 2
}

func (r *Recorder) Len() int { return len(r.samples) }
