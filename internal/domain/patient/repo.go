package patient

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("patient not found")

// Repository persists patients. Deleting a patient relies on the
// ON DELETE CASCADE of spitalizari_de_zi.cnp_pacient to remove its
// hospitalizations; the repository never deletes them itself.
type Repository interface {
	Get(ctx context.Context, cnp string) (*Patient, error)
	Exists(ctx context.Context, cnp string) (bool, error)
	List(ctx context.Context, f Filter) ([]*Patient, int, error)
	Create(ctx context.Context, p *Patient) error
	// CreateStub inserts p unless a patient with the same CNP exists and
	// reports whether it did. Concurrent callers never see a conflict.
	CreateStub(ctx context.Context, p *Patient) (bool, error)
	Update(ctx context.Context, cnp string, ch Changes) error
	Delete(ctx context.Context, cnp string) error
}
