package profile

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/models"
	"github.com/framezapp/framez/internal/common"
	"github.com/framezapp/framez/internal/logging"
)

// fakeClient serves profile rows from an in-memory map and records the last
// Select/Insert calls.
type fakeClient struct {
	rows map[string]models.Profile

	SelectErr error
	InsertErr error

	LastQuery       backend.Query
	LastInsertTable string
	LastInsertRow   models.Profile
	InsertCalls     int
}

func (f *fakeClient) Select(ctx context.Context, q backend.Query, dest any) error {
	f.LastQuery = q
	if f.SelectErr != nil {
		return f.SelectErr
	}
	for _, flt := range q.Filters {
		if flt.Column == "id" {
			if p, ok := f.rows[flt.Value]; ok {
				*dest.(*models.Profile) = p
				return nil
			}
		}
	}
	return common.ErrNotFound
}

func (f *fakeClient) Insert(ctx context.Context, table string, row, dest any) error {
	f.InsertCalls++
	f.LastInsertTable = table
	f.LastInsertRow = row.(models.Profile)
	if f.InsertErr != nil {
		return f.InsertErr
	}
	p := row.(models.Profile)
	if f.rows == nil {
		f.rows = map[string]models.Profile{}
	}
	f.rows[p.ID] = p
	if dest != nil {
		*dest.(*models.Profile) = p
	}
	return nil
}

func (f *fakeClient) GetSession(ctx context.Context) (*backend.Session, error) { return nil, nil }
func (f *fakeClient) OnAuthStateChange(h backend.Handler) backend.Subscription { return nil }
func (f *fakeClient) SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.Session, error) {
	return nil, nil
}
func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	return nil, nil
}
func (f *fakeClient) SignOut(ctx context.Context) error                           { return nil }
func (f *fakeClient) Resend(ctx context.Context, req backend.ResendRequest) error { return nil }
func (f *fakeClient) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	return nil
}
func (f *fakeClient) GetPublicURL(bucket, path string) string { return "" }

func TestEnsureProfile_ExistingRowReturnedUntouched(t *testing.T) {
	fc := &fakeClient{rows: map[string]models.Profile{
		"u1": {ID: "u1", Username: "custom_name", FullName: "Alice A"},
	}}
	b := NewBootstrapper(fc, logging.NewNoopLogger())

	p, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, "custom_name", p.Username)
	require.Zero(t, fc.InsertCalls, "an existing profile must never be rewritten")
}

func TestEnsureProfile_MissingRow_CreatedWithEmailLocalPart(t *testing.T) {
	fc := &fakeClient{}
	b := NewBootstrapper(fc, logging.NewNoopLogger())

	p, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, 1, fc.InsertCalls)
	require.Equal(t, "profiles", fc.LastInsertTable)
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "alice", p.Username)
	require.False(t, fc.LastInsertRow.CreatedAt.IsZero())
}

func TestEnsureProfile_DuplicateInsert_RefetchesWinner(t *testing.T) {
	fc := &fakeClient{rows: map[string]models.Profile{}, InsertErr: common.ErrDuplicate}

	// The concurrent winner's row appears between the failed insert and the
	// refetch.
	firstFetch := true
	rc := &raceClient{fakeClient: fc, onSelect: func() {
		if firstFetch {
			firstFetch = false
			return
		}
		fc.rows["u1"] = models.Profile{ID: "u1", Username: "alice"}
	}}
	b := NewBootstrapper(rc, logging.NewNoopLogger())

	p, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, "alice", p.Username)
	require.Equal(t, 1, fc.InsertCalls)
}

// raceClient runs onSelect before each Select, to plant rows mid-flow.
type raceClient struct {
	*fakeClient
	onSelect func()
}

func (r *raceClient) Select(ctx context.Context, q backend.Query, dest any) error {
	r.onSelect()
	return r.fakeClient.Select(ctx, q, dest)
}

func TestEnsureProfile_LookupErrorPropagates(t *testing.T) {
	fc := &fakeClient{SelectErr: common.ErrUnavailable}
	b := NewBootstrapper(fc, logging.NewNoopLogger())

	_, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrUnavailable)
	require.Zero(t, fc.InsertCalls)
}

func TestEnsureProfile_InsertErrorPropagates(t *testing.T) {
	fc := &fakeClient{InsertErr: common.ErrUnauthorized}
	b := NewBootstrapper(fc, logging.NewNoopLogger())

	_, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestEnsureProfile_QueriesSingleRowById(t *testing.T) {
	fc := &fakeClient{rows: map[string]models.Profile{"u1": {ID: "u1", Username: "alice"}}}
	b := NewBootstrapper(fc, logging.NewNoopLogger())

	_, err := b.EnsureProfile(context.Background(), backend.Identity{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)
	require.True(t, fc.LastQuery.One)
	require.Equal(t, "profiles", fc.LastQuery.Table)
	require.Equal(t, []backend.Filter{{Column: "id", Value: "u1"}}, fc.LastQuery.Filters)
}
