package challenge

import "context"

// Repository describes challenge persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, ch Challenge) error
	GetByID(ctx context.Context, challengeID string) (Challenge, bool, error)
	List(ctx context.Context) ([]Challenge, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Challenge, error)
	// UpdateStatus swaps the status only when the stored value still matches
	// from; the returned bool reports whether the swap happened. frozen is
	// persisted alongside the transition to active.
	UpdateStatus(ctx context.Context, challengeID string, from, to Status, frozen *AdmissionSnapshot) (bool, error)
}
