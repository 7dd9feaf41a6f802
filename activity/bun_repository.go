package activity

import (
	"context"
	"errors"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-masker"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed decision repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*DecisionEntry]
	Clock      types.Clock
	IDGen      types.IDGenerator
	Masker     *masker.Masker
}

type decisionStore interface {
	repository.Repository[*DecisionEntry]
}

// Repository persists decisions and exposes query helpers.
type Repository struct {
	decisionStore
	db     *bun.DB
	clock  types.Clock
	idGen  types.IDGenerator
	masker *masker.Masker
}

// NewRepository constructs a repository that implements both DecisionSink
// and DecisionRepository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("activity: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*DecisionEntry]{
			NewRecord: func() *DecisionEntry { return &DecisionEntry{} },
			GetID: func(entry *DecisionEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *DecisionEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	mask := cfg.Masker
	if mask == nil {
		mask = DefaultMasker()
	}

	return &Repository{
		decisionStore: repo,
		db:            cfg.DB,
		clock:         clock,
		idGen:         idGen,
		masker:        mask,
	}, nil
}

var (
	_ repository.Repository[*DecisionEntry] = (*Repository)(nil)
	_ types.DecisionSink                    = (*Repository)(nil)
	_ types.DecisionRepository              = (*Repository)(nil)
)

// LogDecision persists a masked decision.
func (r *Repository) LogDecision(ctx context.Context, event types.DecisionEvent) error {
	entry := toEntry(uuid.Nil, SanitizeEvent(r.masker, event))
	entry.ID = r.idGen.UUID()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.clock.Now()
	}
	_, err := r.Create(ctx, entry)
	return err
}

// ListDecisions returns a page of decisions, newest first.
func (r *Repository) ListDecisions(ctx context.Context, filter types.DecisionFilter) (types.DecisionPage, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = applyDecisionFilter(q, filter)
			if filter.Cursor != nil {
				return ApplyCursorPagination(q, filter.Cursor, pagination.Limit)
			}
			return q.OrderExpr("occurred_at DESC, id DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return types.DecisionPage{}, err
	}
	records := make([]types.DecisionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	page := types.DecisionPage{
		Records: records,
		Total:   total,
	}
	if filter.Cursor != nil {
		page.HasMore = len(records) == pagination.Limit
		return page, nil
	}
	page.NextOffset = pagination.Offset + pagination.Limit
	page.HasMore = pagination.Offset+pagination.Limit < total
	return page, nil
}

// DecisionStats counts decisions grouped by terminal state.
func (r *Repository) DecisionStats(ctx context.Context, filter types.DecisionFilter) (map[types.DecisionState]int, error) {
	stats := make(map[types.DecisionState]int)
	if r.db == nil {
		return stats, errors.New("activity: stats requires bun DB")
	}
	query := r.db.NewSelect().
		Table("authz_decisions").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("state").
		Group("state")
	query = applyDecisionFilter(query, filter)

	type row struct {
		State string `bun:"state"`
		Total int    `bun:"total"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return stats, err
	}
	for _, rec := range rows {
		stats[types.DecisionState(rec.State)] = rec.Total
	}
	return stats, nil
}

func applyDecisionFilter(q *bun.SelectQuery, filter types.DecisionFilter) *bun.SelectQuery {
	if filter.ActorID != uuid.Nil {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Resource != "" {
		q = q.Where("resource = ?", string(filter.Resource))
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, state := range filter.States {
			states = append(states, string(state))
		}
		q = q.Where("state IN (?)", bun.In(states))
	}
	if filter.Since != nil && !filter.Since.IsZero() {
		q = q.Where("occurred_at >= ?", filter.Since)
	}
	if filter.Until != nil && !filter.Until.IsZero() {
		q = q.Where("occurred_at <= ?", filter.Until)
	}
	return q
}

func toEntry(id uuid.UUID, event types.DecisionEvent) *DecisionEntry {
	required := make([]string, 0, len(event.RequiredRoles))
	for _, role := range event.RequiredRoles {
		required = append(required, string(role))
	}
	return &DecisionEntry{
		ID:            id,
		ActorID:       event.ActorID,
		Role:          string(event.Role),
		Operation:     string(event.Operation),
		Resource:      string(event.Resource),
		State:         string(event.State),
		RequiredRoles: required,
		Fault:         event.Fault,
		Candidates:    event.Candidates,
		Visible:       event.Visible,
		Draft:         cloneDraft(event.Draft),
		OccurredAt:    event.OccurredAt,
	}
}

func toRecord(entry *DecisionEntry) types.DecisionRecord {
	if entry == nil {
		return types.DecisionRecord{}
	}
	var required []types.RoleTag
	if len(entry.RequiredRoles) > 0 {
		required = make([]types.RoleTag, 0, len(entry.RequiredRoles))
		for _, role := range entry.RequiredRoles {
			required = append(required, types.RoleTag(role))
		}
	}
	return types.DecisionRecord{
		ID: entry.ID,
		DecisionEvent: types.DecisionEvent{
			ActorID:       entry.ActorID,
			Role:          types.RoleTag(entry.Role),
			Operation:     types.OperationClass(entry.Operation),
			Resource:      types.ResourceType(entry.Resource),
			State:         types.DecisionState(entry.State),
			RequiredRoles: required,
			Fault:         entry.Fault,
			Candidates:    entry.Candidates,
			Visible:       entry.Visible,
			Draft:         cloneDraft(entry.Draft),
			OccurredAt:    entry.OccurredAt,
		},
	}
}

// FromDecisionRecord converts a domain record into its Bun model.
func FromDecisionRecord(record types.DecisionRecord) *DecisionEntry {
	return toEntry(record.ID, record.DecisionEvent)
}

// ToDecisionRecord converts a Bun model into the domain record.
func ToDecisionRecord(entry *DecisionEntry) types.DecisionRecord {
	return toRecord(entry)
}

func cloneDraft(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return cloneMap(src)
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
