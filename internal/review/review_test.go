package review

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimeeting/unimeetbot/core/database"
	"github.com/unimeeting/unimeetbot/core/metrics"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/storage"
)

type recorder struct {
	newRequests []int64
	decided     []domain.RequestStatus
	err         error
}

func (r *recorder) NewRequest(_ context.Context, _ *domain.User, req *domain.VerificationRequest) error {
	r.newRequests = append(r.newRequests, req.ID)
	return r.err
}

func (r *recorder) Decided(_ context.Context, req *domain.PendingRequest) error {
	r.decided = append(r.decided, req.Status)
	return r.err
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	cfg := database.Config{
		Driver:        database.DriverSQLite,
		URL:           filepath.Join(t.TempDir(), "review.db"),
		MigrationsDir: "../../migrations",
	}
	require.NoError(t, database.RunMigrations(cfg))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.New(db)
}

func withProfile(t *testing.T, s *storage.Store, tgID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateUser(ctx, tgID, "")
	require.NoError(t, err)
	require.NoError(t, s.UpdateProfile(ctx, tgID, domain.Profile{
		Name: "Ann", Age: 20, Course: 2, Major: "CS", Description: "fifteen chars!!", PhotoID: "p",
	}))
}

func TestDecideOnlyOnce(t *testing.T) {
	s := newStore(t)
	rec := &recorder{}
	m := metrics.New()
	e := New(s, rec, m)
	ctx := context.Background()

	var last *domain.VerificationRequest
	for tg := int64(1); tg <= 5; tg++ {
		withProfile(t, s, tg)
		req, err := e.Submit(ctx, tg, "card")
		require.NoError(t, err)
		last = req
	}
	require.Equal(t, int64(5), last.ID)
	assert.Len(t, rec.newRequests, 5)

	got, err := e.Decide(ctx, 5, domain.RequestApproved, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, got.Status)

	u, err := s.UserByTelegramID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, u.VerificationStatus)

	_, err = e.Decide(ctx, 5, domain.RequestRejected, 2)
	require.ErrorIs(t, err, domain.ErrNotPending)

	u, err = s.UserByTelegramID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, u.VerificationStatus)
	assert.Equal(t, []domain.RequestStatus{domain.RequestApproved}, rec.decided)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("stale")))

	pending, err := e.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 4)
	assert.Equal(t, int64(1), pending[0].ID)
}

func TestNotificationFailureKeepsDecision(t *testing.T) {
	s := newStore(t)
	rec := &recorder{err: errors.New("bot was blocked by the user")}
	e := New(s, rec, nil)
	ctx := context.Background()
	withProfile(t, s, 10)

	req, err := e.Submit(ctx, 10, "card")
	require.NoError(t, err)
	_, err = e.Decide(ctx, req.ID, domain.RequestRejected, 1)
	require.NoError(t, err)

	got, err := e.Request(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, got.Status)
}

func TestSubmitGuards(t *testing.T) {
	s := newStore(t)
	e := New(s, nil, nil)
	ctx := context.Background()

	_, err := e.Submit(ctx, 20, "card")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.CreateUser(ctx, 20, "")
	require.NoError(t, err)
	_, err = e.Submit(ctx, 20, "card")
	require.ErrorIs(t, err, domain.ErrForbidden)

	withProfile(t, s, 21)
	_, err = e.Submit(ctx, 21, "card")
	require.NoError(t, err)
	_, err = e.Submit(ctx, 21, "card-2")
	require.ErrorIs(t, err, domain.ErrPendingExists)

	_, err = e.Decide(ctx, 1, domain.RequestPending, 1)
	require.Error(t, err)
}
