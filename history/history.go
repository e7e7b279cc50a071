package history

import "context"

// History holds every Turn per user. List returns turns in the store's
// native order; callers must not re-sort them.
type History interface {
	List(ctx context.Context, userId string) ([]Turn, error)
	Append(ctx context.Context, turn Turn) error
}
