package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/probekit/internal/metric"
)

// StoreSink persists log records and metric samples to a local SQLite session
// store, so instrumentation output survives the process and can be inspected
// offline. It implements both LogSink and MetricSink.
type StoreSink struct {
	db *sql.DB
	mu sync.RWMutex
}

// StoredRecord is one persisted log record.
type StoredRecord struct {
	ID          int64
	Taken       time.Time
	Severity    Severity
	System      string
	Category    string
	Caption     string
	Description string
	Source      string
}

// StoredSample is one persisted metric sample.
type StoredSample struct {
	ID         int64
	Taken      time.Time
	Definition string
	Instance   string
	Values     map[string]any
}

// NewStoreSink opens (or creates) the session store.
// Use ":memory:" for an in-memory store, or a file path for persistence.
func NewStoreSink(dbPath string) (*StoreSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &StoreSink{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *StoreSink) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS log_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		severity TEXT NOT NULL,
		system TEXT NOT NULL,
		category TEXT NOT NULL,
		caption TEXT NOT NULL,
		description TEXT,
		source TEXT
	);
	CREATE TABLE IF NOT EXISTS metric_definitions (
		key TEXT PRIMARY KEY,
		system TEXT NOT NULL,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		slots TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS metric_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		definition_key TEXT NOT NULL,
		instance TEXT,
		slot_values TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON log_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_samples_definition ON metric_samples(definition_key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Write persists one log record.
func (s *StoreSink) Write(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO log_records (timestamp, severity, system, category, caption, description, source) VALUES (?, ?, ?, ?, ?, ?, ?)",
		time.Now().Unix(), string(rec.Severity), rec.System, rec.Category, rec.Caption, rec.Description, rec.Source.String(),
	)
	if err != nil {
		return fmt.Errorf("insert log record: %w", err)
	}
	return nil
}

// Define persists the definition schema; replays for the same key are ignored.
func (s *StoreSink) Define(def *metric.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slotsJSON, err := json.Marshal(def.Slots())
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO metric_definitions (key, system, category, name, slots) VALUES (?, ?, ?, ?, ?)",
		def.Key(), def.System, def.Category, def.Name, slotsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert definition: %w", err)
	}
	return nil
}

// WriteSample persists one sample with its slot values JSON-encoded.
func (s *StoreSink) WriteSample(sample *metric.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valuesJSON, err := json.Marshal(encodeValues(sample))
	if err != nil {
		return fmt.Errorf("marshal sample values: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO metric_samples (timestamp, definition_key, instance, slot_values) VALUES (?, ?, ?, ?)",
		sample.Taken.Unix(), sample.Definition.Key(), sample.Instance, valuesJSON,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Records retrieves persisted log records at or after the given time.
func (s *StoreSink) Records(ctx context.Context, since time.Time) ([]StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, severity, system, category, caption, description, source FROM log_records WHERE timestamp >= ? ORDER BY id",
		since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var r StoredRecord
		var ts int64
		var sev string
		if err := rows.Scan(&r.ID, &ts, &sev, &r.System, &r.Category, &r.Caption, &r.Description, &r.Source); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Taken = time.Unix(ts, 0)
		r.Severity = Severity(sev)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Samples retrieves persisted samples for a definition key.
func (s *StoreSink) Samples(ctx context.Context, definitionKey string) ([]StoredSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, definition_key, instance, slot_values FROM metric_samples WHERE definition_key = ? ORDER BY id",
		definitionKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []StoredSample
	for rows.Next() {
		var ss StoredSample
		var ts int64
		var valuesJSON []byte
		if err := rows.Scan(&ss.ID, &ts, &ss.Definition, &ss.Instance, &valuesJSON); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		ss.Taken = time.Unix(ts, 0)
		if len(valuesJSON) > 0 {
			if err := json.Unmarshal(valuesJSON, &ss.Values); err != nil {
				return nil, fmt.Errorf("unmarshal values: %w", err)
			}
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *StoreSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// encodeValues converts sample values into JSON-friendly forms. Durations are
// stored as fractional milliseconds.
func encodeValues(sample *metric.Sample) map[string]any {
	values := sample.Values()
	for k, v := range values {
		if d, ok := v.(time.Duration); ok {
			values[k] = float64(d) / float64(time.Millisecond)
		}
	}
	return values
}
