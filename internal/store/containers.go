package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/scope"
)

const (
	containerColID        = "EntityId"
	containerColName      = "Name"
	containerColParent    = "Parent"
	containerColType      = "Type"
	containerColSortOrder = "SortOrder"
)

// ContainerStore reads and writes the container hierarchy table.
type ContainerStore struct {
	db    QueryInterceptor
	d     dialect.Dialect
	table string
}

func NewContainerStore(db QueryInterceptor, d dialect.Dialect) *ContainerStore {
	return &ContainerStore{db: db, d: d, table: scope.DefaultHierarchyTable}
}

// Load reads every container into a new registry. Parents are registered before
// their children whatever the row order.
func (s *ContainerStore) Load(ctx context.Context) (*container.Registry, error) {
	query, args, err := sq.Select(
		containerColID,
		containerColName,
		fmt.Sprintf("COALESCE(%s, '')", containerColParent),
		fmt.Sprintf("COALESCE(%s, '')", containerColType),
		fmt.Sprintf("COALESCE(%s, 0)", containerColSortOrder),
	).From(s.table).
		OrderBy(containerColSortOrder, containerColName).
		PlaceholderFormat(s.d.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make(map[string][]container.Container)
	count := 0
	for rows.Next() {
		var c container.Container
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &typ, &c.SortOrder); err != nil {
			return nil, err
		}
		if c.Type, err = container.ParseType(typ); err != nil {
			return nil, fmt.Errorf("container %s: %w", c.ID, err)
		}
		children[c.ParentID] = append(children[c.ParentID], c)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reg := container.NewRegistry()
	pending := []string{""}
	for len(pending) > 0 {
		parent := pending[0]
		pending = pending[1:]
		for _, c := range children[parent] {
			if _, err := reg.Add(c); err != nil {
				return nil, err
			}
			pending = append(pending, c.ID)
		}
	}
	if reg.Len() != count {
		return nil, fmt.Errorf("%d containers are not attached to the root", count-reg.Len())
	}
	return reg, nil
}

// Save writes c, replacing the stored row with the same id.
func (s *ContainerStore) Save(ctx context.Context, c *container.Container) error {
	var parent any
	if c.ParentID != "" {
		parent = c.ParentID
	}

	query, args, err := sq.Update(s.table).
		Set(containerColName, c.Name).
		Set(containerColParent, parent).
		Set(containerColType, string(c.Type)).
		Set(containerColSortOrder, c.SortOrder).
		Where(sq.Eq{containerColID: c.ID}).
		PlaceholderFormat(s.d.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	query, args, err = sq.Insert(s.table).
		Columns(containerColID, containerColName, containerColParent, containerColType, containerColSortOrder).
		Values(c.ID, c.Name, parent, string(c.Type), c.SortOrder).
		PlaceholderFormat(s.d.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// SaveAll writes every container of reg in registration order.
func (s *ContainerStore) SaveAll(ctx context.Context, reg *container.Registry) error {
	for _, c := range reg.All() {
		if err := s.Save(ctx, c); err != nil {
			return fmt.Errorf("saving container %s: %w", c.ID, err)
		}
	}
	return nil
}
