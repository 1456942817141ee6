package doctor

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("doctor not found")

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	GetByCNP(ctx context.Context, cnp string) (*Doctor, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsCNP(ctx context.Context, cnp string) (bool, error)
	List(ctx context.Context, f Filter) ([]*Doctor, int, error)
	Create(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, id int64, ch Changes) error
	// Deactivate is the only way a doctor is "deleted"; rows are never removed.
	Deactivate(ctx context.Context, id int64) error
}
