package pipeline

import "context"

// User identifies an authenticated caller.
type User struct {
	ID    string
	Email string
}

// CurrentUserFunc resolves the caller behind a request. Implementations
// return ErrUnauthorized when a required credential is absent or invalid.
// Auth lives outside this module; embedders plug their own resolver in and
// pass the resulting user ID as Query.RequestedBy.
type CurrentUserFunc func(ctx context.Context) (*User, error)

// QuotaChecker gates pipeline runs per caller. Implementations return
// ErrQuotaExceeded (possibly wrapped) when the caller is out of quota.
type QuotaChecker interface {
	Check(ctx context.Context, caller string) error
}

// allowAll is the default checker: every caller passes.
type allowAll struct{}

var _ QuotaChecker = (*allowAll)(nil)

func (allowAll) Check(context.Context, string) error { return nil }
