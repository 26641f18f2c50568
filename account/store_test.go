package account

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

var recordColumns = []string{
	"phone_no", "user_name", "account_status", "reason",
	"account_number", "account_balance", "credit_card_number",
}

// stubConnector answers every query with rows (or err) and records the SQL it received.
type stubConnector struct {
	mu      sync.Mutex
	queries []string
	rows    [][]driver.Value
	err     error
}

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return &stubConn{c: c}, nil }
func (c *stubConnector) Driver() driver.Driver                      { return stubDriver{} }

func (c *stubConnector) lastQuery(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) == 0 {
		t.Fatal("no query was executed")
	}
	return c.queries[len(c.queries)-1]
}

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type stubConn struct{ c *stubConnector }

func (s *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unsupported") }
func (s *stubConn) Close() error                        { return nil }
func (s *stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("tx unsupported") }

func (s *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.queries = append(s.c.queries, query)
	if s.c.err != nil {
		return nil, s.c.err
	}
	return &stubRows{rows: s.c.rows}, nil
}

type stubRows struct {
	rows [][]driver.Value
	pos  int
}

func (r *stubRows) Columns() []string { return recordColumns }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func newStubStore(t *testing.T, conn *stubConnector, cfg StoreConfig) *BunStore {
	t.Helper()
	db := bun.NewDB(sql.OpenDB(conn), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewBunStore(db, cfg)
	if err != nil {
		t.Fatalf("NewBunStore() error = %v", err)
	}
	return store
}

func TestBunStoreQueryShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		table     string
		wantTable string
	}{
		{name: "default table", table: "", wantTable: `"eazybank_applications" AS a`},
		{name: "custom table", table: "intake applications", wantTable: `"intake applications" AS a`},
		{name: "schema qualified", table: "bank.applications", wantTable: `"bank"."applications" AS a`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := &stubConnector{}
			store := newStubStore(t, conn, StoreConfig{Table: tt.table})

			if _, err := store.FindByPhone(context.Background(), 9999999999); !errors.Is(err, ErrNotFound) {
				t.Fatalf("FindByPhone() error = %v, want ErrNotFound", err)
			}

			query := conn.lastQuery(t)
			for _, want := range []string{tt.wantTable, "a.phone_no = 9999999999", "LIMIT 1"} {
				if !strings.Contains(query, want) {
					t.Fatalf("query %q does not contain %q", query, want)
				}
			}
			if strings.Contains(query, `"id"`) {
				t.Fatalf("query %q selects a column the table does not have", query)
			}
		})
	}
}

func TestBunStoreFindByPhoneMapsFirstRow(t *testing.T) {
	t.Parallel()

	conn := &stubConnector{rows: [][]driver.Value{
		{int64(9999999999), "Sarah Connor", "approved", nil, int64(9876543210), "$1000.00", "************1234"},
	}}
	store := newStubStore(t, conn, StoreConfig{})

	rec, err := store.FindByPhone(context.Background(), 9999999999)
	if err != nil {
		t.Fatalf("FindByPhone() error = %v", err)
	}
	if rec.PhoneNo != 9999999999 {
		t.Fatalf("phone_no = %d", rec.PhoneNo)
	}
	if rec.UserName == nil || *rec.UserName != "Sarah Connor" {
		t.Fatalf("user_name = %v", rec.UserName)
	}
	if rec.Reason != nil {
		t.Fatalf("reason = %q, want nil", *rec.Reason)
	}
	if rec.AccountNumber == nil || *rec.AccountNumber != 9876543210 {
		t.Fatalf("account_number = %v", rec.AccountNumber)
	}
}

func TestBunStoreFindByPhoneErrors(t *testing.T) {
	t.Parallel()

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()

		store := newStubStore(t, &stubConnector{}, StoreConfig{})
		rec, err := store.FindByPhone(context.Background(), 1234567890)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("FindByPhone() error = %v, want ErrNotFound", err)
		}
		if rec != nil {
			t.Fatalf("record = %+v, want nil", rec)
		}
	})

	t.Run("driver failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection reset by peer")
		store := newStubStore(t, &stubConnector{err: cause}, StoreConfig{})
		_, err := store.FindByPhone(context.Background(), 1)
		if !errors.Is(err, cause) {
			t.Fatalf("FindByPhone() error = %v, want wrapped cause", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Fatalf("FindByPhone() error = %v, must not be ErrNotFound", err)
		}
		if !strings.Contains(err.Error(), "eazybank_applications") {
			t.Fatalf("error %q does not name the table", err)
		}
	})
}

func TestNewBunStoreRequiresDB(t *testing.T) {
	t.Parallel()

	if _, err := NewBunStore(nil, StoreConfig{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}
