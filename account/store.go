package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

const DefaultTable = "eazybank_applications"

var ErrNotFound = errors.New("account record not found")

// Store reads applicant records. It owns no write path.
type Store interface {
	FindByPhone(ctx context.Context, phoneNo int64) (*Record, error)
}

type StoreConfig struct {
	Table string `split_words:"true" default:"eazybank_applications"`
}

// BunStore queries the applications table through a shared *bun.DB.
type BunStore struct {
	db    bun.IDB
	table string
}

func NewBunStore(db bun.IDB, cfg StoreConfig) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultTable
	}
	return &BunStore{db: db, table: table}, nil
}

// FindByPhone returns the first row whose phone_no equals phoneNo. Further
// rows sharing the number are ignored.
func (s *BunStore) FindByPhone(ctx context.Context, phoneNo int64) (*Record, error) {
	rec := new(Record)
	err := s.selectByPhone(rec, phoneNo).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s by phone_no: %w", s.table, err)
	}
	return rec, nil
}

func (s *BunStore) selectByPhone(rec *Record, phoneNo int64) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rec).
		ModelTableExpr("? AS a", bun.Ident(s.table)).
		Where("a.phone_no = ?", phoneNo).
		Limit(1)
}
