package annotation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"codenote/internal/annotate"
)

// Dialect names a database/sql driver the SQL store can talk to.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore keeps each record as a JSON document keyed by ID.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	schemaMu    sync.Mutex
	schemaReady bool
}

// OpenSQL opens dsn with the driver for dialect and verifies the connection.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is required", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one writer; also keeps a ":memory:" database on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureSchema creates the table on first success. A failed attempt, such as
// one cut short by a cancelled request, is retried by the next caller.
func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS annotations (
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  created_at TEXT NOT NULL
)`); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}

func (s *SQLStore) Put(ctx context.Context, rec annotate.Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeID(rec.ID)
	if err != nil {
		return err
	}
	rec.ID = id
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode annotation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO annotations (id, payload, created_at)
VALUES (?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET payload=EXCLUDED.payload, created_at=EXCLUDED.created_at`),
		id, string(payload), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (annotate.Record, error) {
	if s == nil || s.db == nil {
		return annotate.Record{}, fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return annotate.Record{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return annotate.Record{}, fmt.Errorf("ensure schema: %w", err)
	}
	var payload string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM annotations WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return annotate.Record{}, ErrNotFound
	}
	if err != nil {
		return annotate.Record{}, err
	}
	var rec annotate.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return annotate.Record{}, fmt.Errorf("decode annotation %s: %w", id, err)
	}
	return rec, nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
