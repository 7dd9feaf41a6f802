package crudguard

import (
	"context"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-campus-authz/permissions"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAdapterEnforceAllowsGrantedOperation(t *testing.T) {
	adapter := NewAdapter(Config{})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "secretary"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	result, err := adapter.Enforce(GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
		Resource:  types.ResourceRoom,
	})
	require.NoError(t, err)
	require.Equal(t, types.RoleSecretary, result.Role)
	require.Equal(t, types.OperationRead, result.Operation)
	require.Equal(t, crud.OpList, result.CrudOperation)
	require.Equal(t, actorCtx.ActorID, result.Actor.ID.String())
}

func TestAdapterEnforceDeniesBeforeRowsLoad(t *testing.T) {
	adapter := NewAdapter(Config{})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "professor"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	_, err := adapter.Enforce(GuardInput{
		Context:   ctx,
		Operation: crud.OpCreate,
		Resource:  types.ResourceBuilding,
	})
	require.ErrorIs(t, err, types.ErrAuthorizationDenied)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.Equal(t, "AUTHORIZATION_DENIED", richErr.TextCode)
	require.Equal(t, []string{"admin", "secretary"}, richErr.Metadata["required_roles"])
}

func TestAdapterEnforceMapsDeletes(t *testing.T) {
	adapter := NewAdapter(Config{})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "professor"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	result, err := adapter.Enforce(GuardInput{
		Context:   ctx,
		Operation: crud.OpDeleteBatch,
		Resource:  types.ResourceGrade,
	})
	require.NoError(t, err)
	require.Equal(t, types.OperationDelete, result.Operation)
}

func TestAdapterEnforceRejectsUnknownRole(t *testing.T) {
	adapter := NewAdapter(Config{})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "janitor"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	_, err := adapter.Enforce(GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		Resource:  types.ResourceRoom,
	})
	require.ErrorIs(t, err, types.ErrUnknownRole)
}

func TestAdapterEnforceBypassSkipsMatrix(t *testing.T) {
	adapter := NewAdapter(Config{Evaluator: permissions.NewMatrix(nil)})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "admin"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	result, err := adapter.Enforce(GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		Resource:  types.ResourceRoom,
		Bypass: &BypassConfig{
			Enabled: true,
			Reason:  "schema export",
		},
	})
	require.NoError(t, err)
	require.True(t, result.Bypassed)
	require.Equal(t, "schema export", result.BypassReason)
}

func TestAdapterMissingActorReturnsError(t *testing.T) {
	adapter := NewAdapter(Config{})
	_, err := adapter.Enforce(GuardInput{
		Context:   newStubCrudContext(context.Background()),
		Operation: crud.OpRead,
		Resource:  types.ResourceRoom,
	})
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.Equal(t, "ACTOR_CONTEXT_MISSING", richErr.TextCode)
}

func TestAdapterFallsBackToClaims(t *testing.T) {
	adapter := NewAdapter(Config{})
	actorID := uuid.New()
	claims := &testClaims{
		subject: actorID.String(),
		uid:     actorID.String(),
		role:    "admin",
	}
	ctx := auth.WithClaimsContext(context.Background(), claims)

	result, err := adapter.Enforce(GuardInput{
		Context:   newStubCrudContext(ctx),
		Operation: crud.OpRead,
		Resource:  types.ResourceFaculty,
		Bypass:    &BypassConfig{Enabled: true, Reason: "claims only"},
	})
	require.NoError(t, err)
	require.Equal(t, actorID, result.Actor.ID)
}

func TestAdapterUnmappedOperation(t *testing.T) {
	adapter := NewAdapter(Config{OperationMap: map[crud.CrudOperation]types.OperationClass{
		crud.OpRead: types.OperationRead,
	}})
	actorCtx := &auth.ActorContext{ActorID: uuid.NewString(), Role: "admin"}
	ctx := newStubCrudContext(auth.WithActorContext(context.Background(), actorCtx))

	_, err := adapter.Enforce(GuardInput{Context: ctx, Operation: crud.OpDelete, Resource: types.ResourceFaculty})
	require.ErrorIs(t, err, types.ErrUnknownOperation)
}

// helpers

type stubCrudContext struct {
	ctx     context.Context
	status  int
	body    []byte
	queries map[string]string
}

func newStubCrudContext(ctx context.Context) *stubCrudContext {
	return &stubCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
	}
}

func (s *stubCrudContext) UserContext() context.Context {
	return s.ctx
}

func (s *stubCrudContext) Params(key string, defaultValue ...string) string {
	return ""
}

func (s *stubCrudContext) BodyParser(out any) error {
	return nil
}

func (s *stubCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := s.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (s *stubCrudContext) QueryValues(key string) []string {
	if v, ok := s.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (s *stubCrudContext) QueryInt(key string, defaultValue ...int) int {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

func (s *stubCrudContext) Queries() map[string]string {
	return s.queries
}

func (s *stubCrudContext) Body() []byte {
	return s.body
}

func (s *stubCrudContext) Status(status int) crud.Response {
	s.status = status
	return s
}

func (s *stubCrudContext) JSON(data any, ctype ...string) error {
	return nil
}

func (s *stubCrudContext) SendStatus(status int) error {
	s.status = status
	return nil
}

type testClaims struct {
	subject  string
	uid      string
	role     string
	metadata map[string]any
	res      map[string]string
}

func (t *testClaims) Subject() string                  { return t.subject }
func (t *testClaims) UserID() string                   { return t.uid }
func (t *testClaims) Role() string                     { return t.role }
func (t *testClaims) CanRead(string) bool              { return true }
func (t *testClaims) CanEdit(string) bool              { return true }
func (t *testClaims) CanCreate(string) bool            { return true }
func (t *testClaims) CanDelete(string) bool            { return true }
func (t *testClaims) HasRole(role string) bool         { return t.role == role }
func (t *testClaims) IsAtLeast(string) bool            { return true }
func (t *testClaims) Expires() time.Time               { return time.Time{} }
func (t *testClaims) IssuedAt() time.Time              { return time.Time{} }
func (t *testClaims) ResourceRoles() map[string]string { return t.res }
func (t *testClaims) ClaimsMetadata() map[string]any   { return t.metadata }
