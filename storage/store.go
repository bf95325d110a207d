// Package storage persists pipeline documents in a SQLite-backed key/value
// document store, grounded on the corpus's own embed-schema-and-migrate
// SQLite package.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// maxBatchOps is the largest number of document writes committed in a
// single SQL transaction; a BatchWrite call larger than this is split
// across multiple transactions.
const maxBatchOps = 450

// Collection names the eight persisted collections a pipeline run writes
// to.
type Collection string

const (
	CollectionPossessionSegments Collection = "possessionSegments"
	CollectionPassEvents         Collection = "passEvents"
	CollectionCarryEvents        Collection = "carryEvents"
	CollectionTurnoverEvents     Collection = "turnoverEvents"
	CollectionPendingReviews     Collection = "pendingReviews"
	CollectionStats              Collection = "stats"
	CollectionTrackMappings      Collection = "trackMappings"
	CollectionTrackTeamMetas     Collection = "trackTeamMetas"
)

// documentNamespace is the fixed UUIDv5 namespace every deterministic
// document ID is derived under.
var documentNamespace = uuid.MustParse("6f2b9a6e-6c7e-4e6d-8d6f-9a0c4a2e7b11")

// DocumentID derives a deterministic id for a document in collection c
// belonging to matchID, identified within that match by naturalKey.
// Re-running a pipeline step against the same match and natural key
// always yields the same id, so BatchWrite is idempotent at the storage
// layer.
func DocumentID(matchID string, c Collection, naturalKey string) string {
	return uuid.NewSHA1(documentNamespace, []byte(matchID+"|"+string(c)+"|"+naturalKey)).String()
}

// Document is one write in a BatchWrite call.
type Document struct {
	Collection Collection
	MatchID    string
	ID         string
	Body       any
}

// DocumentStore is the key/value document-store collaborator the
// pipeline persists through.
type DocumentStore interface {
	BatchWrite(ctx context.Context, docs []Document) error
	Get(ctx context.Context, c Collection, matchID, id string, out any) (bool, error)
	List(ctx context.Context, c Collection, matchID string) ([]json.RawMessage, error)
	Close() error
}

// SQLiteStore is a DocumentStore backed by a pure-Go SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the
// embedded schema.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("matchpipe/storage: open db: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("matchpipe/storage: apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// BatchWrite upserts every document in docs, splitting the write into
// transactions of at most maxBatchOps documents each.
func (s *SQLiteStore) BatchWrite(ctx context.Context, docs []Document) error {
	for start := 0; start < len(docs); start += maxBatchOps {
		end := min(start+maxBatchOps, len(docs))
		if err := s.writeChunk(ctx, docs[start:end]); err != nil {
			return fmt.Errorf("matchpipe/storage: batch write [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (s *SQLiteStore) writeChunk(ctx context.Context, chunk []Document) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO documents(collection, match_id, doc_id, data)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range chunk {
		data, err := json.Marshal(d.Body)
		if err != nil {
			return fmt.Errorf("marshal document %s/%s: %w", d.Collection, d.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, string(d.Collection), d.MatchID, d.ID, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get loads one document by id into out, returning false if no such
// document exists.
func (s *SQLiteStore) Get(ctx context.Context, c Collection, matchID, id string, out any) (bool, error) {
	var data string
	err := s.conn.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND match_id = ? AND doc_id = ?`,
		string(c), matchID, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("matchpipe/storage: unmarshal %s/%s: %w", c, id, err)
	}
	return true, nil
}

// List returns the raw JSON body of every document in collection c for
// matchID.
func (s *SQLiteStore) List(ctx context.Context, c Collection, matchID string) ([]json.RawMessage, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND match_id = ? ORDER BY doc_id`,
		string(c), matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}
