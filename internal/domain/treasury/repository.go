package treasury

import "context"

// Repository describes reservation persistence needs from the treasury
// service. Reservations are short-lived rows: created on hold, deleted on
// release or debit.
type Repository interface {
	GetByID(ctx context.Context, reservationID string) (Reservation, bool, error)
	Create(ctx context.Context, r Reservation) error
	Delete(ctx context.Context, reservationID string) error
	ListByRef(ctx context.Context, ref string) ([]Reservation, error)
}
