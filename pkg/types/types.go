package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies the authenticated actor handed over by the credential
// verifier. Role carries the raw role tag as stored upstream.
type ActorRef struct {
	ID   uuid.UUID
	Role string
}

// Record is a single row of a resource type. Refs holds the foreign keys used
// for unit resolution and ownership; a missing key or uuid.Nil is a null
// relation.
type Record struct {
	Type  ResourceType
	ID    uuid.UUID
	Refs  map[string]uuid.UUID
	Attrs map[string]any
}

// Ref returns the identifier stored under the relation name or uuid.Nil.
func (r Record) Ref(name string) uuid.UUID {
	if len(r.Refs) == 0 {
		return uuid.Nil
	}
	return r.Refs[name]
}

// WithRef returns a copy of the record with the relation set.
func (r Record) WithRef(name string, id uuid.UUID) Record {
	clone := r.Clone()
	if clone.Refs == nil {
		clone.Refs = make(map[string]uuid.UUID)
	}
	clone.Refs[name] = id
	return clone
}

// Clone detaches the ref and attribute maps from the original record.
func (r Record) Clone() Record {
	clone := Record{
		Type: r.Type,
		ID:   r.ID,
	}
	if len(r.Refs) > 0 {
		clone.Refs = make(map[string]uuid.UUID, len(r.Refs))
		for k, v := range r.Refs {
			clone.Refs[k] = v
		}
	}
	if len(r.Attrs) > 0 {
		clone.Attrs = make(map[string]any, len(r.Attrs))
		for k, v := range r.Attrs {
			clone.Attrs[k] = v
		}
	}
	return clone
}

// ProfileRecord is the role-specific profile backing a scoped actor.
type ProfileRecord struct {
	ID      uuid.UUID
	ActorID uuid.UUID
	Role    RoleTag
	Refs    map[string]uuid.UUID
}

// AsRecord exposes the profile as a row of its resource type so unit paths can
// be walked from it.
func (p ProfileRecord) AsRecord(resource ResourceType) Record {
	return Record{
		Type: resource,
		ID:   p.ID,
		Refs: p.Refs,
	}.Clone()
}

// RoleDescriptor describes the visibility carried by one role tag.
type RoleDescriptor struct {
	Tag       RoleTag
	Scoped    bool
	Universal bool
	Profile   ResourceType
}

// ResolvedIdentity is the outcome of actor resolution. Unit is uuid.Nil when
// no unit restriction applies or when resolution faulted; Fault tells the two
// apart.
type ResolvedIdentity struct {
	Actor     ActorRef
	Role      RoleDescriptor
	Unit      uuid.UUID
	ProfileID uuid.UUID
	Fault     error
}

// HasUnit reports whether a unit was resolved.
func (id ResolvedIdentity) HasUnit() bool {
	return id.Unit != uuid.Nil
}

// Incomplete reports whether the scoped role lacks a usable profile.
func (id ResolvedIdentity) Incomplete() bool {
	return id.Fault != nil
}

// Pagination limits row fetches.
type Pagination struct {
	Limit  int
	Offset int
}

// RowFilter narrows row fetches at the persistence layer. Refs entries must
// all match.
type RowFilter struct {
	IDs        []uuid.UUID
	Refs       map[string]uuid.UUID
	Pagination Pagination
}

// DecisionEvent is emitted once per request when the authorizer reaches a
// terminal state.
type DecisionEvent struct {
	ActorID       uuid.UUID
	Role          RoleTag
	Operation     OperationClass
	Resource      ResourceType
	State         DecisionState
	RequiredRoles []RoleTag
	Fault         string
	Candidates    int
	Visible       int
	Draft         map[string]any
	OccurredAt    time.Time
}

// DecisionRecord is a persisted DecisionEvent.
type DecisionRecord struct {
	ID uuid.UUID
	DecisionEvent
}

// DecisionFilter narrows decision log listings. Actor is the requester;
// ActorID narrows to the decisions taken about one actor. A Cursor takes
// precedence over the pagination offset.
type DecisionFilter struct {
	Actor      ActorRef
	ActorID    uuid.UUID
	Resource   ResourceType
	States     []DecisionState
	Since      *time.Time
	Until      *time.Time
	Cursor     *DecisionCursor
	Pagination Pagination
}

// DecisionCursor points at the last decision of a previous page.
type DecisionCursor struct {
	OccurredAt time.Time
	ID         uuid.UUID
}

// Type implements gocommand.Message.
func (DecisionFilter) Type() string {
	return "query.decision.list"
}

// Validate implements gocommand.Message.
func (filter DecisionFilter) Validate() error {
	if filter.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// DecisionPage is a paginated decision log listing.
type DecisionPage struct {
	Records    []DecisionRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterResolve  func(context.Context, ResolvedIdentity)
	AfterDecision func(context.Context, DecisionEvent)
	AfterDelete   func(context.Context, DeleteEvent)
}

// DeleteEvent signals rows removed through the authorizer.
type DeleteEvent struct {
	ActorID    uuid.UUID
	Resource   ResourceType
	IDs        []uuid.UUID
	Cascaded   []uuid.UUID
	OccurredAt time.Time
}

// DecisionSink persists authorization decisions.
type DecisionSink interface {
	LogDecision(context.Context, DecisionEvent) error
}

// DecisionRepository exposes read-side access to the decision log.
type DecisionRepository interface {
	ListDecisions(ctx context.Context, filter DecisionFilter) (DecisionPage, error)
}

// ProfileRepository loads the role-specific profile of an actor. A missing
// profile is reported with ErrProfileNotFound.
type ProfileRepository interface {
	FetchProfile(ctx context.Context, role RoleTag, actorID uuid.UUID) (*ProfileRecord, error)
}

// ProfileRepositoryFunc adapts bare functions to ProfileRepository.
type ProfileRepositoryFunc func(ctx context.Context, role RoleTag, actorID uuid.UUID) (*ProfileRecord, error)

// FetchProfile implements ProfileRepository.
func (f ProfileRepositoryFunc) FetchProfile(ctx context.Context, role RoleTag, actorID uuid.UUID) (*ProfileRecord, error) {
	return f(ctx, role, actorID)
}

// ProfileCascade removes a profile together with the credential row it
// belongs to. The removed profile is returned so callers can report the
// cascaded actor.
type ProfileCascade interface {
	DeleteProfile(ctx context.Context, role RoleTag, profileID uuid.UUID) (*ProfileRecord, error)
}

// RelationSource loads single rows while walking unit paths. A missing row is
// reported with ErrRecordNotFound.
type RelationSource interface {
	Lookup(ctx context.Context, resource ResourceType, id uuid.UUID) (*Record, error)
}

// RelationSourceFunc adapts bare functions to RelationSource.
type RelationSourceFunc func(ctx context.Context, resource ResourceType, id uuid.UUID) (*Record, error)

// Lookup implements RelationSource.
func (f RelationSourceFunc) Lookup(ctx context.Context, resource ResourceType, id uuid.UUID) (*Record, error) {
	return f(ctx, resource, id)
}

// RowRepository is the persistence collaborator for candidate rows.
type RowRepository interface {
	RelationSource
	FetchRows(ctx context.Context, resource ResourceType, filter RowFilter) ([]Record, error)
	SaveRow(ctx context.Context, record Record) (*Record, error)
	DeleteRows(ctx context.Context, resource ResourceType, ids []uuid.UUID) error
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID implements IDGenerator.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates the command/query lacks an actor.
	ErrActorRequired = errors.New("go-campus-authz: actor reference required")
	// ErrUnknownRole indicates a role tag outside the closed role set.
	ErrUnknownRole = errors.New("go-campus-authz: unknown role")
	// ErrIncompleteProfile indicates a scoped role without a usable profile.
	ErrIncompleteProfile = errors.New("go-campus-authz: incomplete profile")
	// ErrAuthorizationDenied indicates the permission matrix rejected the operation.
	ErrAuthorizationDenied = errors.New("go-campus-authz: authorization denied")
	// ErrScopeViolation indicates a write targeting a unit outside the actor's own.
	ErrScopeViolation = errors.New("go-campus-authz: scope violation on write")
	// ErrProfileNotFound indicates no profile backs the actor.
	ErrProfileNotFound = errors.New("go-campus-authz: profile not found")
	// ErrRecordNotFound indicates the row does not exist or is not visible.
	ErrRecordNotFound = errors.New("go-campus-authz: record not found")
	// ErrDuplicateRecord indicates a create would repeat a unique ref tuple.
	ErrDuplicateRecord = errors.New("go-campus-authz: duplicate record")
	// ErrUnknownResource indicates a resource type outside the catalog.
	ErrUnknownResource = errors.New("go-campus-authz: unknown resource type")
	// ErrUnknownOperation indicates an operation class outside read/write/delete.
	ErrUnknownOperation = errors.New("go-campus-authz: unknown operation class")
	// ErrMissingProfileRepository indicates the resolver lacks its repository.
	ErrMissingProfileRepository = errors.New("go-campus-authz: missing profile repository")
	// ErrMissingResolver indicates the authorizer lacks an actor resolver.
	ErrMissingResolver = errors.New("go-campus-authz: missing actor resolver")
	// ErrMissingRowRepository indicates commands/queries lack a row repository.
	ErrMissingRowRepository = errors.New("go-campus-authz: missing row repository")
	// ErrMissingDecisionRepository indicates the decision log query lacks storage.
	ErrMissingDecisionRepository = errors.New("go-campus-authz: missing decision repository")
	// ErrServiceNotReady indicates the service is missing required dependencies.
	ErrServiceNotReady = errors.New("go-campus-authz: service not ready")
)
