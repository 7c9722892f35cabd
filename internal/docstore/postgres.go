package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const defaultTable = "documents"

// PostgresClient stores one JSONB document per written path. Writers on the
// same top-level collection serialize on a transaction advisory lock.
type PostgresClient struct {
	db    *sql.DB
	table string
}

type PostgresOption func(*PostgresClient)

func WithTable(name string) PostgresOption {
	return func(c *PostgresClient) {
		c.table = name
	}
}

func NewPostgresClient(db *sql.DB, opts ...PostgresOption) *PostgresClient {
	c := &PostgresClient{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PostgresClient) Driver() Driver { return DriverPostgres }

// EnsureSchema creates the documents table when missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		path TEXT PRIMARY KEY,
		body JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, pq.QuoteIdentifier(c.table))
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (c *PostgresClient) Fetch(ctx context.Context, path string) (Value, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return Value{}, err
	}
	node, err := flatRead(ctx, c.reader(c.db), clean)
	if err != nil {
		return Value{}, wrapDriverErr(OpFetch, clean, err)
	}
	return encodeTree(node)
}

func (c *PostgresClient) Put(ctx context.Context, path string, value any) error {
	tree, err := toTree(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return c.write(ctx, OpPut, path, func(r flatReader, clean string) (flatPlan, error) {
		return planWrite(ctx, r, clean, tree)
	})
}

func (c *PostgresClient) Patch(ctx context.Context, path string, fields map[string]any) error {
	return c.write(ctx, OpPatch, path, func(r flatReader, clean string) (flatPlan, error) {
		return planPatch(ctx, r, clean, fields)
	})
}

func (c *PostgresClient) Delete(ctx context.Context, path string) error {
	return c.write(ctx, OpDelete, path, func(r flatReader, clean string) (flatPlan, error) {
		return planWrite(ctx, r, clean, nil)
	})
}

func (c *PostgresClient) write(ctx context.Context, op Op, path string, plan func(flatReader, string) (flatPlan, error)) (err error) {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return transportErr(op, clean, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, splitPath(clean)[0]); err != nil {
		return transportErr(op, clean, err)
	}

	p, err := plan(c.reader(tx), clean)
	if err != nil {
		return wrapDriverErr(op, clean, err)
	}

	table := pq.QuoteIdentifier(c.table)
	if len(p.del) > 0 {
		query := fmt.Sprintf(`DELETE FROM %s WHERE path = ANY($1)`, table)
		if _, err = tx.ExecContext(ctx, query, pq.Array(p.del)); err != nil {
			return transportErr(op, clean, err)
		}
	}
	upsert := fmt.Sprintf(`INSERT INTO %s (path, body, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (path) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, table)
	for docPath, raw := range p.set {
		if _, err = tx.ExecContext(ctx, upsert, docPath, string(raw)); err != nil {
			return transportErr(op, clean, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return transportErr(op, clean, err)
	}
	return nil
}

func wrapDriverErr(op Op, path string, err error) error {
	if err == nil || errors.Is(err, ErrShape) {
		return err
	}
	return transportErr(op, path, err)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type pgReader struct {
	q     queryer
	table string
}

func (c *PostgresClient) reader(q queryer) *pgReader {
	return &pgReader{q: q, table: pq.QuoteIdentifier(c.table)}
}

func (r *pgReader) documents(ctx context.Context, paths []string) (map[string]json.RawMessage, error) {
	if len(paths) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	query := fmt.Sprintf(`SELECT path, body FROM %s WHERE path = ANY($1)`, r.table)
	return r.collect(ctx, query, pq.Array(paths))
}

func (r *pgReader) descendants(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	query := fmt.Sprintf(`SELECT path, body FROM %s WHERE left(path, char_length($1)) = $1`, r.table)
	return r.collect(ctx, query, path+"/")
}

func (r *pgReader) collect(ctx context.Context, query string, args ...any) (map[string]json.RawMessage, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var path string
		var body []byte
		if err := rows.Scan(&path, &body); err != nil {
			return nil, err
		}
		out[path] = json.RawMessage(body)
	}
	return out, rows.Err()
}
