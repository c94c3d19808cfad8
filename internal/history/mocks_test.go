package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// --- Mocks ---

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execErr   error
	execCalls []execCall
	queryFunc func(sql string, args ...any) (pgx.Rows, error)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execCalls = append(f.execCalls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.queryFunc(sql, args...)
}

// fakeRows は値の行を順に Scan する pgx.Rows です。
type fakeRows struct {
	rows   [][]any
	idx    int
	closed bool
	err    error
}

func (r *fakeRows) Close() { r.closed = true }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case **string:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(string)
				*p = &v
			}
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type mockInserter struct {
	err     error
	records []domain.HistoryRecord
}

func (m *mockInserter) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

type mockObjects struct {
	failKeys map[string]bool
	puts     map[string][]byte
	types    map[string]string
}

func (m *mockObjects) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if m.failKeys[key] {
		return "", fmt.Errorf("put %s: unavailable", key)
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.puts[key] = data
	m.types[key] = contentType
	return "s3://jewelry/" + key, nil
}
