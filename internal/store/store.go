// Package store persists subscriptions and scan history in a SQLite
// database under the repository's .codepin directory. Targets and trigger
// details are stored as JSON documents; the relational layer only carries
// what queries filter on.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"codepin/internal/detect"
	"codepin/internal/errors"
	"codepin/internal/logging"
	"codepin/internal/target"
)

// Record is one persisted subscription. Exactly one of Line and Semantic
// is set, mirrored by the kind column.
type Record struct {
	ID        string                 `json:"id"`
	Note      string                 `json:"note,omitempty"`
	Line      *target.LineTarget     `json:"line,omitempty"`
	Semantic  *target.SemanticTarget `json:"semantic,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// ScanRecord is one persisted scan run
type ScanRecord struct {
	ID        string    `json:"id"`
	BaseRef   string    `json:"baseRef"`
	TargetRef string    `json:"targetRef"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the subscription and scan-history database
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Open opens or creates the database at <repoRoot>/.codepin/codepin.db
func Open(repoRoot string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	dir := filepath.Join(repoRoot, ".codepin")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.New(errors.StorageError, "creating .codepin directory", err)
	}
	dbPath := filepath.Join(dir, "codepin.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.New(errors.StorageError, "opening database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.New(errors.StorageError, "setting pragma", err)
		}
	}

	s := &Store{conn: conn, logger: logger, path: dbPath}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS subscriptions (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	target_json TEXT NOT NULL,
	note        TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	base_ref   TEXT NOT NULL,
	target_ref TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_triggers (
	scan_id         TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	subscription_id TEXT NOT NULL,
	classification  TEXT NOT NULL,
	details_json    TEXT,
	proposal_json   TEXT,
	position        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_triggers_scan ON scan_triggers(scan_id);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return errors.New(errors.StorageError, "initializing schema", err)
	}
	return nil
}

// CreateSubscription validates, assigns an id, and persists a subscription
func (s *Store) CreateSubscription(rec *Record) error {
	var kind string
	var doc interface{}
	switch {
	case rec.Line != nil && rec.Semantic == nil:
		if err := target.ValidateLine(rec.Line); err != nil {
			return err
		}
		kind, doc = "line", rec.Line
	case rec.Semantic != nil && rec.Line == nil:
		if err := target.ValidateSemantic(rec.Semantic); err != nil {
			return err
		}
		kind, doc = "semantic", rec.Semantic
	default:
		return errors.Newf(errors.InvalidTarget, "subscription requires exactly one of a line or semantic target")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.New(errors.StorageError, "encoding target", err)
	}

	_, err = s.conn.Exec(
		`INSERT INTO subscriptions (id, kind, target_json, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, kind, string(payload), rec.Note, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return errors.New(errors.StorageError, "inserting subscription", err)
	}

	s.logger.Info("subscription created", map[string]interface{}{
		"id":   rec.ID,
		"kind": kind,
	})
	return nil
}

// GetSubscription loads one subscription by id
func (s *Store) GetSubscription(id string) (*Record, error) {
	row := s.conn.QueryRow(
		`SELECT id, kind, target_json, note, created_at, updated_at
		 FROM subscriptions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.SubscriptionNotFound, "subscription %q not found", id)
	}
	if err != nil {
		return nil, errors.New(errors.StorageError, "loading subscription", err)
	}
	return rec, nil
}

// ListSubscriptions returns every subscription, oldest first
func (s *Store) ListSubscriptions() ([]*Record, error) {
	rows, err := s.conn.Query(
		`SELECT id, kind, target_json, note, created_at, updated_at
		 FROM subscriptions ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.New(errors.StorageError, "listing subscriptions", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.New(errors.StorageError, "decoding subscription row", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StorageError, "iterating subscriptions", err)
	}
	return out, nil
}

// DeleteSubscription removes a subscription by id
func (s *Store) DeleteSubscription(id string) error {
	res, err := s.conn.Exec(`DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return errors.New(errors.StorageError, "deleting subscription", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.SubscriptionNotFound, "subscription %q not found", id)
	}
	return nil
}

// ApplyProposal moves a subscription's target to a proposed new location.
// Semantic targets also refresh their qualname when the proposal names one.
func (s *Store) ApplyProposal(id string, p *detect.Proposal) error {
	rec, err := s.GetSubscription(id)
	if err != nil {
		return err
	}

	switch {
	case rec.Line != nil:
		rec.Line.Path = p.Path
		rec.Line.StartLine = p.StartLine
		rec.Line.EndLine = p.EndLine
	case rec.Semantic != nil:
		rec.Semantic.Path = p.Path
		if p.Qualname != "" {
			rec.Semantic.Qualname = p.Qualname
			rec.Semantic.BaselineContainerQualname = p.Qualname
		}
	}

	var doc interface{} = rec.Line
	if rec.Semantic != nil {
		doc = rec.Semantic
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.New(errors.StorageError, "encoding target", err)
	}

	_, err = s.conn.Exec(
		`UPDATE subscriptions SET target_json = ?, updated_at = ? WHERE id = ?`,
		string(payload), time.Now().UTC(), id)
	if err != nil {
		return errors.New(errors.StorageError, "updating subscription", err)
	}
	return nil
}

// RecordScan persists a scan run and its triggers, returning the scan id
func (s *Store) RecordScan(result *detect.ScanResult) (string, error) {
	scanID := uuid.NewString()

	tx, err := s.conn.Begin()
	if err != nil {
		return "", errors.New(errors.StorageError, "beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(
		`INSERT INTO scans (id, base_ref, target_ref, created_at) VALUES (?, ?, ?, ?)`,
		scanID, result.BaseRef, result.TargetRef, time.Now().UTC())
	if err != nil {
		return "", errors.New(errors.StorageError, "inserting scan", err)
	}

	for i, trig := range result.Triggers {
		details, proposal, err := encodeTrigger(&trig)
		if err != nil {
			return "", err
		}
		_, err = tx.Exec(
			`INSERT INTO scan_triggers
			 (scan_id, subscription_id, classification, details_json, proposal_json, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			scanID, trig.SubscriptionID, string(trig.Classification), details, proposal, i)
		if err != nil {
			return "", errors.New(errors.StorageError, "inserting trigger", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.New(errors.StorageError, "committing scan", err)
	}

	s.logger.Info("scan recorded", map[string]interface{}{
		"scan_id":  scanID,
		"triggers": len(result.Triggers),
	})
	return scanID, nil
}

// ListScans returns the most recent scans, newest first
func (s *Store) ListScans(limit int) ([]*ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(
		`SELECT id, base_ref, target_ref, created_at
		 FROM scans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.New(errors.StorageError, "listing scans", err)
	}
	defer rows.Close()

	var out []*ScanRecord
	for rows.Next() {
		rec := &ScanRecord{}
		if err := rows.Scan(&rec.ID, &rec.BaseRef, &rec.TargetRef, &rec.CreatedAt); err != nil {
			return nil, errors.New(errors.StorageError, "decoding scan row", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StorageError, "iterating scans", err)
	}
	return out, nil
}

// ScanTriggers loads the persisted triggers of one scan, in scan order
func (s *Store) ScanTriggers(scanID string) ([]detect.Trigger, error) {
	rows, err := s.conn.Query(
		`SELECT subscription_id, classification, details_json, proposal_json
		 FROM scan_triggers WHERE scan_id = ? ORDER BY position`, scanID)
	if err != nil {
		return nil, errors.New(errors.StorageError, "loading triggers", err)
	}
	defer rows.Close()

	var out []detect.Trigger
	for rows.Next() {
		var trig detect.Trigger
		var classification string
		var details, proposal sql.NullString
		if err := rows.Scan(&trig.SubscriptionID, &classification, &details, &proposal); err != nil {
			return nil, errors.New(errors.StorageError, "decoding trigger row", err)
		}
		trig.Classification = detect.Classification(classification)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &trig.Details); err != nil {
				return nil, errors.New(errors.StorageError, "decoding trigger details", err)
			}
		}
		if proposal.Valid && proposal.String != "" {
			trig.Proposal = &detect.Proposal{}
			if err := json.Unmarshal([]byte(proposal.String), trig.Proposal); err != nil {
				return nil, errors.New(errors.StorageError, "decoding trigger proposal", err)
			}
		}
		out = append(out, trig)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StorageError, "iterating triggers", err)
	}
	return out, nil
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var kind, targetJSON string
	if err := row.Scan(&rec.ID, &kind, &targetJSON, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	switch kind {
	case "line":
		rec.Line = &target.LineTarget{}
		if err := json.Unmarshal([]byte(targetJSON), rec.Line); err != nil {
			return nil, err
		}
	case "semantic":
		rec.Semantic = &target.SemanticTarget{}
		if err := json.Unmarshal([]byte(targetJSON), rec.Semantic); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown subscription kind %q", kind)
	}
	return &rec, nil
}

func encodeTrigger(trig *detect.Trigger) (details, proposal sql.NullString, err error) {
	if trig.Details != nil {
		raw, merr := json.Marshal(trig.Details)
		if merr != nil {
			return details, proposal, errors.New(errors.StorageError, "encoding trigger details", merr)
		}
		details = sql.NullString{String: string(raw), Valid: true}
	}
	if trig.Proposal != nil {
		raw, merr := json.Marshal(trig.Proposal)
		if merr != nil {
			return details, proposal, errors.New(errors.StorageError, "encoding trigger proposal", merr)
		}
		proposal = sql.NullString{String: string(raw), Valid: true}
	}
	return details, proposal, nil
}
