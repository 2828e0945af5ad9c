package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

type fakeAdmins struct {
	rows []domain.Admin
	err  error
}

func (f fakeAdmins) IsAdmin(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, a := range f.rows {
		if a.TelegramID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeAdmins) ListAdmins(context.Context) ([]domain.Admin, error) { return f.rows, f.err }

func TestIsAdminSources(t *testing.T) {
	a := New([]int64{1}, []string{"@Boss"}, fakeAdmins{rows: []domain.Admin{{TelegramID: 3}}})
	ctx := context.Background()

	assert.True(t, a.IsAdmin(ctx, 1, ""))
	assert.True(t, a.IsAdmin(ctx, 2, "boss"))
	assert.True(t, a.IsAdmin(ctx, 2, "@BOSS"))
	assert.True(t, a.IsAdmin(ctx, 3, "whoever"))
	assert.False(t, a.IsAdmin(ctx, 4, "nobody"))
}

func TestStoreErrorDenies(t *testing.T) {
	a := New(nil, nil, fakeAdmins{err: errors.New("db down")})
	assert.False(t, a.IsAdmin(context.Background(), 3, ""))
	assert.Empty(t, a.Recipients(context.Background()))
}

func TestRecipientsIncludeSeenHandles(t *testing.T) {
	a := New([]int64{10, 1}, []string{"boss"}, fakeAdmins{rows: []domain.Admin{{TelegramID: 1}, {TelegramID: 7}}})
	ctx := context.Background()

	assert.Equal(t, []int64{1, 7, 10}, a.Recipients(ctx))
	a.Observe(55, "@Boss")
	a.Observe(56, "stranger")
	assert.Equal(t, []int64{1, 7, 10, 55}, a.Recipients(ctx))
	assert.Equal(t, []int64{1, 10}, a.ConfiguredIDs())
}

func TestNilStore(t *testing.T) {
	a := New(nil, []string{""}, nil)
	assert.False(t, a.IsAdmin(context.Background(), 1, ""))
	assert.Empty(t, a.Recipients(context.Background()))
}
