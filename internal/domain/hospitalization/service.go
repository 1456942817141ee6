package hospitalization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eessp/eessp/internal/domain/patient"
	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/metrics"
	"github.com/eessp/eessp/internal/platform/payload"
	"github.com/eessp/eessp/pkg/cnp"
)

// PatientStore is the part of the patient repository the aggregate needs to
// create a stub patient. patient.Repository satisfies it.
type PatientStore interface {
	Exists(ctx context.Context, cnp string) (bool, error)
	CreateStub(ctx context.Context, p *patient.Patient) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientStore
	tx       db.TxManager
	now      func() time.Time
}

func NewService(repo Repository, patients PatientStore, tx db.TxManager) *Service {
	return &Service{repo: repo, patients: patients, tx: tx, now: time.Now}
}

const notFoundMsg = "Hospitalization record not found"

// Get returns the full aggregate. Repeated calls without intervening writes
// render identical JSON.
func (s *Service) Get(ctx context.Context, id int64) (*Hospitalization, error) {
	h, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound(notFoundMsg)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}

	if h.DiagnosticeSecundare, err = decodeDiagnoses(h.rawDiagnoses); err != nil {
		return nil, apperr.Storage(fmt.Errorf("decode diagnostice_secundare: %w", err))
	}
	for _, c := range Collections {
		if items := h.Items(c); *items == nil {
			*items = []Item{}
		}
	}
	if h.Tratamente == nil {
		h.Tratamente = []Treatment{}
	}
	if h.ResedintaSameDomiciliu {
		h.ResedintaJudet = h.DomiciliuJudet
		h.ResedintaLocalitate = h.DomiciliuLocalitate
		h.ResedintaMediu = h.DomiciliuMediu
		h.ResedintaStrada = h.DomiciliuStrada
		h.ResedintaNumar = h.DomiciliuNumar
	}
	return h, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Summary, int, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// ListByPatient returns every episode of one patient, newest first.
func (s *Service) ListByPatient(ctx context.Context, code string) ([]*Summary, error) {
	items, err := s.repo.ListByPatient(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}

// Create stores a new episode with its child collections in one
// transaction. A patient missing from the registry is created from the
// identity fields of the payload.
func (s *Service) Create(ctx context.Context, f payload.Fields) (*Hospitalization, error) {
	if !f.NonEmpty("cnp") {
		return nil, apperr.Validation("Patient CNP is required")
	}
	code, err := f.String("cnp")
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	code = strings.TrimSpace(code)
	if !cnp.Valid(code) {
		return nil, apperr.Validation("Invalid CNP format. Must be 13 digits.")
	}

	now := s.now()
	set, err := parentSet(f, now, true)
	if err != nil {
		return nil, err
	}
	kids, err := readChildren(f, now)
	if err != nil {
		return nil, err
	}

	var id int64
	stubbed := false
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.patients.Exists(ctx, code)
		if err != nil {
			return err
		}
		if !exists {
			p, err := patient.Stub(code, f, now)
			if err != nil {
				return err
			}
			// A concurrent create may insert the patient first; the
			// episode is then linked to that row.
			if stubbed, err = s.patients.CreateStub(ctx, p); err != nil {
				return err
			}
		}

		if id, err = s.repo.Insert(ctx, code, set); err != nil {
			return err
		}
		return s.writeChildren(ctx, id, kids, false)
	})
	if err != nil {
		return nil, classify(err)
	}

	metrics.AggregateWrites.WithLabelValues("create").Inc()
	if stubbed {
		metrics.PatientStubsCreated.Inc()
	}
	countSkipped(kids)
	return s.Get(ctx, id)
}

// Update applies the parent columns present in f and replaces every child
// collection whose key is present, all in one transaction.
func (s *Service) Update(ctx context.Context, f payload.Fields) (*Hospitalization, error) {
	id, err := f.Int64("id")
	if err != nil || id <= 0 {
		return nil, apperr.Validation("Hospitalization ID is required")
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !exists {
		return nil, apperr.NotFound(notFoundMsg)
	}

	now := s.now()
	set, err := parentSet(f, now, false)
	if err != nil {
		return nil, err
	}
	kids, err := readChildren(f, now)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 && kids.empty() {
		return nil, apperr.BadRequest("No fields to update")
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if len(set) > 0 {
			if err := s.repo.Update(ctx, id, set); err != nil {
				return err
			}
		}
		return s.writeChildren(ctx, id, kids, true)
	})
	if err != nil {
		return nil, classify(err)
	}

	metrics.AggregateWrites.WithLabelValues("update").Inc()
	countSkipped(kids)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("Hospitalization ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(notFoundMsg)
		}
		return apperr.Storage(err)
	}
	metrics.AggregateWrites.WithLabelValues("delete").Inc()
	return nil
}

// writeChildren inserts the collections present in kids. With replace set
// the existing rows of each present collection are deleted first, so an
// empty list clears it.
func (s *Service) writeChildren(ctx context.Context, id int64, kids children, replace bool) error {
	for _, c := range Collections {
		items, ok := kids.items[c]
		if !ok {
			continue
		}
		if replace {
			if err := s.repo.DeleteItems(ctx, id, c); err != nil {
				return err
			}
		}
		for _, it := range items {
			if err := s.repo.InsertItem(ctx, id, c, it); err != nil {
				return err
			}
		}
	}

	if !kids.hasTreatments {
		return nil
	}
	if replace {
		if err := s.repo.DeleteTreatments(ctx, id); err != nil {
			return err
		}
	}
	for _, t := range kids.treatments {
		if err := s.repo.InsertTreatment(ctx, id, t); err != nil {
			return err
		}
	}
	return nil
}

func countSkipped(kids children) {
	for coll, n := range kids.skipped {
		metrics.ChildItemsSkipped.WithLabelValues(coll).Add(float64(n))
	}
}

// classify maps an error returned from inside the transaction to the error
// taxonomy. Errors already classified pass through.
func classify(err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case db.IsForeignKeyViolation(err):
		return apperr.Validation("Referenced doctor does not exist")
	case db.IsStringTooLong(err):
		return apperr.Validation("Value too long for one of the fields")
	}
	return apperr.Storage(err)
}
