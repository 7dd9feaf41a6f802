package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-campus-authz/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed profile repository.
type RepositoryConfig struct {
	DB     *bun.DB
	Logger types.Logger
}

type profileRow interface {
	identity() uuid.UUID
	setIdentity(uuid.UUID)
	profile() types.ProfileRecord
}

type profileStore interface {
	fetch(ctx context.Context, actorID uuid.UUID) (*types.ProfileRecord, error)
	lookup(ctx context.Context, profileID uuid.UUID) (*types.ProfileRecord, error)
	remove(ctx context.Context, tx bun.Tx, profileID uuid.UUID) error
}

// roleStore serves the profile table of one scoped role.
type roleStore[T profileRow] struct {
	role      types.RoleTag
	repo      repository.Repository[T]
	newRecord func() T
}

func newRoleStore[T profileRow](db *bun.DB, role types.RoleTag, newRecord func() T, opts RepositoryOptions) (*roleStore[T], error) {
	base := repository.NewRepository(db, handlers(newRecord))
	repo, err := withCache(base, opts)
	if err != nil {
		return nil, err
	}
	return &roleStore[T]{role: role, repo: repo, newRecord: newRecord}, nil
}

func handlers[T interface {
	identity() uuid.UUID
	setIdentity(uuid.UUID)
}](newRecord func() T) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(rec T) uuid.UUID {
			return rec.identity()
		},
		SetID: func(rec T, id uuid.UUID) {
			rec.setIdentity(id)
		},
	}
}

func (s *roleStore[T]) fetch(ctx context.Context, actorID uuid.UUID) (*types.ProfileRecord, error) {
	rec, err := s.repo.Get(ctx, repository.SelectBy("user_id", "=", actorID.String()))
	return s.toDomain(rec, err)
}

func (s *roleStore[T]) lookup(ctx context.Context, profileID uuid.UUID) (*types.ProfileRecord, error) {
	rec, err := s.repo.GetByID(ctx, profileID.String())
	return s.toDomain(rec, err)
}

func (s *roleStore[T]) toDomain(rec T, err error) (*types.ProfileRecord, error) {
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}
	out := rec.profile()
	out.Role = s.role
	return &out, nil
}

func (s *roleStore[T]) remove(ctx context.Context, tx bun.Tx, profileID uuid.UUID) error {
	res, err := tx.NewDelete().
		Model(s.newRecord()).
		Where("id = ?", profileID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return repository.SQLExpectedCount(res, 1)
}

// Repository implements types.ProfileRepository and types.ProfileCascade on
// the role profile tables.
type Repository struct {
	db     *bun.DB
	users  repository.Repository[*UserRecord]
	stores map[types.RoleTag]profileStore
	logger types.Logger
}

var (
	_ types.ProfileRepository = (*Repository)(nil)
	_ types.ProfileCascade    = (*Repository)(nil)
)

// NewRepository constructs the profile repository over the students,
// professors, secretaries and librarians tables.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("profile: db required")
	}
	opts := applyRepositoryOptions(options)

	users, err := withCache(repository.NewRepository(cfg.DB, handlers(func() *UserRecord {
		return &UserRecord{}
	})), opts)
	if err != nil {
		return nil, err
	}

	students, err := newRoleStore(cfg.DB, types.RoleStudent, func() *StudentRecord { return &StudentRecord{} }, opts)
	if err != nil {
		return nil, err
	}
	professors, err := newRoleStore(cfg.DB, types.RoleProfessor, func() *ProfessorRecord { return &ProfessorRecord{} }, opts)
	if err != nil {
		return nil, err
	}
	secretaries, err := newRoleStore(cfg.DB, types.RoleSecretary, func() *SecretaryRecord { return &SecretaryRecord{} }, opts)
	if err != nil {
		return nil, err
	}
	librarians, err := newRoleStore(cfg.DB, types.RoleLibrarian, func() *LibrarianRecord { return &LibrarianRecord{} }, opts)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	return &Repository{
		db:    cfg.DB,
		users: users,
		stores: map[types.RoleTag]profileStore{
			types.RoleStudent:   students,
			types.RoleProfessor: professors,
			types.RoleSecretary: secretaries,
			types.RoleLibrarian: librarians,
		},
		logger: logger,
	}, nil
}

// FetchProfile returns the profile of actorID for the scoped role.
func (r *Repository) FetchProfile(ctx context.Context, role types.RoleTag, actorID uuid.UUID) (*types.ProfileRecord, error) {
	if actorID == uuid.Nil {
		return nil, types.ErrActorRequired
	}
	store, ok := r.stores[role]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	return store.fetch(ctx, actorID)
}

// LookupProfile returns a profile by its own identifier.
func (r *Repository) LookupProfile(ctx context.Context, role types.RoleTag, profileID uuid.UUID) (*types.ProfileRecord, error) {
	store, ok := r.stores[role]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	return store.lookup(ctx, profileID)
}

// GetUser returns the credential row of an actor.
func (r *Repository) GetUser(ctx context.Context, actorID uuid.UUID) (*UserRecord, error) {
	rec, err := r.users.GetByID(ctx, actorID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// DeleteProfile removes the profile and the user row it belongs to in one
// transaction.
func (r *Repository) DeleteProfile(ctx context.Context, role types.RoleTag, profileID uuid.UUID) (*types.ProfileRecord, error) {
	store, ok := r.stores[role]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	profile, err := store.lookup(ctx, profileID)
	if err != nil {
		return nil, err
	}

	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := store.remove(ctx, tx, profileID); err != nil {
			return err
		}
		if profile.ActorID == uuid.Nil {
			return nil
		}
		if _, err := tx.NewDelete().
			Model((*UserRecord)(nil)).
			Where("id = ?", profile.ActorID).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if repository.IsSQLExpectedCountViolation(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile: delete %s %s: %w", role, profileID,
			repository.MapDatabaseError(err, repository.DetectDriver(r.db)))
	}

	r.logger.Info("profile deleted",
		"role", string(role),
		"profile_id", profileID.String(),
		"user_id", profile.ActorID.String(),
	)
	return profile, nil
}
