package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-campus-authz/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Config wires the Bun-backed row store.
type Config struct {
	DB     *bun.DB
	Schema *Schema
	IDGen  types.IDGenerator
	Logger types.Logger
}

// Store implements types.RowRepository over the resource tables.
type Store struct {
	db     *bun.DB
	schema *Schema
	idGen  types.IDGenerator
	logger types.Logger
}

var _ types.RowRepository = (*Store)(nil)

// NewStore constructs the row store. The schema defaults to DefaultSchema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("records: db required")
	}
	schema := cfg.Schema
	if schema == nil {
		schema = DefaultSchema()
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Store{
		db:     cfg.DB,
		schema: schema,
		idGen:  idGen,
		logger: logger,
	}, nil
}

// Schema exposes the table mapping.
func (s *Store) Schema() *Schema {
	return s.schema
}

// Lookup returns a single row or an error matching types.ErrRecordNotFound.
func (s *Store) Lookup(ctx context.Context, resource types.ResourceType, id uuid.UUID) (*types.Record, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("records: %s without id: %w", resource, types.ErrRecordNotFound)
	}
	rows, err := s.FetchRows(ctx, resource, types.RowFilter{
		IDs:        []uuid.UUID{id},
		Pagination: types.Pagination{Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("records: %s %s: %w", resource, id, types.ErrRecordNotFound)
	}
	return &rows[0], nil
}

// FetchRows returns the rows of resource matching filter, ordered by id.
func (s *Store) FetchRows(ctx context.Context, resource types.ResourceType, filter types.RowFilter) ([]types.Record, error) {
	table, err := s.schema.Table(resource)
	if err != nil {
		return nil, err
	}

	q := s.db.NewSelect().TableExpr(table.Name)
	for _, criteria := range rowCriteria(table, filter) {
		q = criteria(q)
	}

	var rows []map[string]interface{}
	if err := q.Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, repository.MapDatabaseError(err, repository.DetectDriver(s.db))
	}

	out := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(table, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SaveRow inserts a row without an ID (or with an unknown one) and replaces
// the refs and provided attrs of an existing row.
func (s *Store) SaveRow(ctx context.Context, record types.Record) (*types.Record, error) {
	table, err := s.schema.Table(record.Type)
	if err != nil {
		return nil, err
	}

	exists := false
	if record.ID == uuid.Nil {
		record.ID = s.idGen.UUID()
	} else {
		count, err := s.db.NewSelect().
			TableExpr(table.Name).
			Where("id = ?", record.ID.String()).
			Count(ctx)
		if err != nil {
			return nil, repository.MapDatabaseError(err, repository.DetectDriver(s.db))
		}
		exists = count > 0
	}

	values := toValues(table, record)
	if exists {
		delete(values, "id")
		if len(values) > 0 {
			res, err := s.db.NewUpdate().
				Model(&values).
				TableExpr(table.Name).
				Where("id = ?", record.ID.String()).
				Exec(ctx)
			if err != nil {
				return nil, repository.MapDatabaseError(err, repository.DetectDriver(s.db))
			}
			if err := repository.SQLExpectedCount(res, 1); err != nil {
				return nil, err
			}
		}
	} else {
		if _, err := s.db.NewInsert().
			Model(&values).
			TableExpr(table.Name).
			Exec(ctx); err != nil {
			return nil, repository.MapDatabaseError(err, repository.DetectDriver(s.db))
		}
	}

	s.logger.Debug("row saved",
		"resource", string(record.Type),
		"id", record.ID.String(),
		"created", !exists,
	)
	return s.Lookup(ctx, record.Type, record.ID)
}

// DeleteRows removes the rows of resource. Every identifier must exist.
// Profile rows take their credential rows with them in the same transaction.
func (s *Store) DeleteRows(ctx context.Context, resource types.ResourceType, ids []uuid.UUID) error {
	table, err := s.schema.Table(resource)
	if err != nil {
		return err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	cascade := types.IsProfileResource(resource)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var owners []string
		if cascade {
			column := RefColumn(types.RefUser)
			err := tx.NewSelect().
				TableExpr(table.Name).
				Column(column).
				Where("id IN (?)", bun.In(idStrings(ids))).
				Where("? IS NOT NULL", bun.Ident(column)).
				Scan(ctx, &owners)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return repository.MapDatabaseError(err, repository.DetectDriver(s.db))
			}
		}

		res, err := tx.NewDelete().
			TableExpr(table.Name).
			Where("id IN (?)", bun.In(idStrings(ids))).
			Exec(ctx)
		if err != nil {
			return repository.MapDatabaseError(err, repository.DetectDriver(s.db))
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			return fmt.Errorf("records: delete %s: %d of %d rows: %w", resource, affected, len(ids), types.ErrRecordNotFound)
		}
		return s.deleteOwners(ctx, tx, owners)
	})
}

func (s *Store) deleteOwners(ctx context.Context, tx bun.Tx, owners []string) error {
	userIDs := make([]string, 0, len(owners))
	for _, owner := range owners {
		if owner != "" {
			userIDs = append(userIDs, owner)
		}
	}
	if len(userIDs) == 0 {
		return nil
	}
	users, err := s.schema.Table(types.ResourceUser)
	if err != nil {
		return err
	}
	_, err = tx.NewDelete().
		TableExpr(users.Name).
		Where("id IN (?)", bun.In(userIDs)).
		Exec(ctx)
	if err != nil {
		return repository.MapDatabaseError(err, repository.DetectDriver(s.db))
	}
	s.logger.Debug("profile credentials removed", "count", len(userIDs))
	return nil
}

// rowCriteria translates a RowFilter into select criteria.
func rowCriteria(table Table, filter types.RowFilter) []repository.SelectCriteria {
	criteria := make([]repository.SelectCriteria, 0, 4)
	if len(filter.IDs) > 0 {
		ids := uniqueIDs(filter.IDs)
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			if len(ids) == 0 {
				return q.Where("1 = 0")
			}
			return q.Where("id IN (?)", bun.In(idStrings(ids)))
		})
	}
	if len(filter.Refs) > 0 {
		refs := make([]string, 0, len(filter.Refs))
		for ref := range filter.Refs {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			ref, id := ref, filter.Refs[ref]
			if !table.hasRef(ref) {
				// unknown relations never match
				criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("1 = 0")
				})
				continue
			}
			criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("? = ?", bun.Ident(RefColumn(ref)), id.String())
			})
		}
	}
	criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.OrderExpr("id ASC")
		if filter.Pagination.Limit > 0 {
			q = q.Limit(filter.Pagination.Limit)
			if filter.Pagination.Offset > 0 {
				q = q.Offset(filter.Pagination.Offset)
			}
		}
		return q
	})
	return criteria
}
