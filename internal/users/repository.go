package users

import "context"

// Repository is the system of record. Implementations notify their
// ChangeListener after every committed write, whichever caller made it.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id uint64) (User, error)
	Create(ctx context.Context, in Input) (User, error)
	Update(ctx context.Context, id uint64, in Input) (User, error)
	Delete(ctx context.Context, id uint64) error
}
