package entity

import "context"

// Transactor groups the repository writes made through the context passed to fn
// into one all-or-nothing unit.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
