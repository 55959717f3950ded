package store

import (
	"database/sql"

	"github.com/kubev2v/relcore/pkg/dialect"
)

// Store provides access to all storage repositories.
type Store struct {
	db         *sql.DB
	qi         QueryInterceptor
	d          dialect.Dialect
	containers *ContainerStore
	rows       *RowStore
}

func NewStore(db *sql.DB, d dialect.Dialect) *Store {
	qi := NewQueryInterceptor(db)
	return &Store{
		db:         db,
		qi:         qi,
		d:          d,
		containers: NewContainerStore(qi, d),
		rows:       NewRowStore(qi, d),
	}
}

func (s *Store) Containers() *ContainerStore {
	return s.containers
}

func (s *Store) Rows() *RowStore {
	return s.rows
}

// DB is the logged query surface, suitable for compiling statements on.
func (s *Store) DB() QueryInterceptor {
	return s.qi
}

func (s *Store) Dialect() dialect.Dialect {
	return s.d
}

func (s *Store) Close() error {
	return s.db.Close()
}
