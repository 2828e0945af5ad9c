// Package access decides who is an administrator.
package access

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/internal/domain"
)

// AdminStore is the persisted admin list.
type AdminStore interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
}

// Authorizer matches users against configured ids, configured handles and
// the admins table.
type Authorizer struct {
	ids     map[int64]struct{}
	handles map[string]struct{}
	store   AdminStore

	mu   sync.Mutex
	seen map[string]int64
}

// New creates an Authorizer. store may be nil.
func New(ids []int64, handles []string, store AdminStore) *Authorizer {
	a := &Authorizer{
		ids:     make(map[int64]struct{}, len(ids)),
		handles: make(map[string]struct{}, len(handles)),
		store:   store,
		seen:    make(map[string]int64),
	}
	for _, id := range ids {
		a.ids[id] = struct{}{}
	}
	for _, h := range handles {
		if h = NormalizeHandle(h); h != "" {
			a.handles[h] = struct{}{}
		}
	}
	return a
}

// NormalizeHandle lower-cases a handle and strips a leading '@'.
func NormalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

// ConfiguredIDs returns the numeric ids from configuration, sorted.
func (a *Authorizer) ConfiguredIDs() []int64 {
	out := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsAdmin reports whether the user is an administrator. Store errors are
// logged and read as a denial.
func (a *Authorizer) IsAdmin(ctx context.Context, id int64, username string) bool {
	if _, ok := a.ids[id]; ok {
		return true
	}
	if h := NormalizeHandle(username); h != "" {
		if _, ok := a.handles[h]; ok {
			a.remember(h, id)
			return true
		}
	}
	if a.store == nil {
		return false
	}
	ok, err := a.store.IsAdmin(ctx, id)
	if err != nil {
		logger.LogEvent(ctx, logger.Users, slog.LevelWarn, "access.lookup_failed",
			slog.Int64("user_id", id),
			slog.String("err", err.Error()),
		)
		return false
	}
	return ok
}

// Observe records the id behind a configured handle so the admin can be
// notified before they ever invoke an admin action.
func (a *Authorizer) Observe(id int64, username string) {
	h := NormalizeHandle(username)
	if h == "" {
		return
	}
	if _, ok := a.handles[h]; ok {
		a.remember(h, id)
	}
}

func (a *Authorizer) remember(handle string, id int64) {
	a.mu.Lock()
	a.seen[handle] = id
	a.mu.Unlock()
}

// Recipients lists every admin id that can be messaged: configured ids,
// stored admins and handle admins seen so far.
func (a *Authorizer) Recipients(ctx context.Context) []int64 {
	set := make(map[int64]struct{}, len(a.ids))
	for id := range a.ids {
		set[id] = struct{}{}
	}
	a.mu.Lock()
	for _, id := range a.seen {
		set[id] = struct{}{}
	}
	a.mu.Unlock()
	if a.store != nil {
		admins, err := a.store.ListAdmins(ctx)
		if err != nil {
			logger.LogEvent(ctx, logger.Users, slog.LevelWarn, "access.list_failed",
				slog.String("err", err.Error()),
			)
		}
		for _, adm := range admins {
			set[adm.TelegramID] = struct{}{}
		}
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
