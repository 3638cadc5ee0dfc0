package usecase

import "context"

// TxRunner scopes a function to one atomic storage commit: every repository
// write inside fn lands together or not at all. Repositories read the
// transaction off the context the runner passes to fn.
type TxRunner interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// passthroughTx runs the function without transactional scoping. Services
// fall back to it when no runner is injected, e.g. single-repository unit
// tests.
type passthroughTx struct{}

func (passthroughTx) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
