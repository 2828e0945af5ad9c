package helpers

import "context"

// CurrentUser resolves a Telegram user ID to a domain entity through any
// lookup exposing UserByTelegramID.
func CurrentUser[T any](
	ctx context.Context,
	lookup interface {
		UserByTelegramID(context.Context, int64) (T, error)
	},
	tgID int64,
) (T, error) {
	var zero T
	if lookup == nil {
		return zero, nil
	}
	return lookup.UserByTelegramID(ctx, tgID)
}
