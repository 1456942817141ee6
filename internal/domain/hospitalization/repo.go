package hospitalization

import (
	"context"
	"errors"

	"github.com/eessp/eessp/internal/platform/query"
)

var ErrNotFound = errors.New("hospitalization not found")

// Repository persists the aggregate. Writes made with a context carrying a
// transaction (db.WithTxContext) join it. Child rows are removed with their
// parent by ON DELETE CASCADE.
type Repository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// Get loads the episode joined with its patient and all child
	// collections; diagnostice_secundare is left undecoded in rawDiagnoses.
	Get(ctx context.Context, id int64) (*Hospitalization, error)
	List(ctx context.Context, f Filter) ([]*Summary, int, error)
	ListByPatient(ctx context.Context, cnp string) ([]*Summary, error)

	Insert(ctx context.Context, cnp string, set []query.Assignment) (int64, error)
	Update(ctx context.Context, id int64, set []query.Assignment) error
	Delete(ctx context.Context, id int64) error

	DeleteItems(ctx context.Context, id int64, c Collection) error
	InsertItem(ctx context.Context, id int64, c Collection, it Item) error
	DeleteTreatments(ctx context.Context, id int64) error
	InsertTreatment(ctx context.Context, id int64, t Treatment) error
}
