package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/payload"
	"github.com/eessp/eessp/pkg/cnp"
	"github.com/eessp/eessp/pkg/textnorm"
)

var requiredFields = []string{"cnp", "nume", "prenume", "sex", "data_nasterii"}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, code string) (*Patient, error) {
	p, err := s.repo.Get(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Patient not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Patient, int, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// Create validates and inserts a patient, then returns the stored row.
func (s *Service) Create(ctx context.Context, f payload.Fields) (*Patient, error) {
	for _, field := range requiredFields {
		if !f.NonEmpty(field) {
			return nil, apperr.Validation("Missing required field: %s", field)
		}
	}

	p := &Patient{}
	var err error
	if p.CNP, err = f.String("cnp"); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	p.CNP = strings.TrimSpace(p.CNP)
	if !cnp.Valid(p.CNP) {
		return nil, apperr.Validation("Invalid CNP format. Must be 13 digits.")
	}
	if err := readNames(f, &p.Nume, &p.Prenume, &p.Sex); err != nil {
		return nil, err
	}
	if p.DataNasterii, err = f.Date("data_nasterii"); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	p.Varsta = ComputeAge(p.CNP, p.DataNasterii, s.now())

	exists, err := s.repo.Exists(ctx, p.CNP)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if exists {
		return nil, apperr.Conflict("Patient with this CNP already exists")
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Patient with this CNP already exists")
		}
		return nil, writeError(err)
	}
	return s.Get(ctx, p.CNP)
}

// Update applies the supplied whitelisted fields of the patient named by the
// body's cnp.
func (s *Service) Update(ctx context.Context, f payload.Fields) (*Patient, error) {
	code, err := f.String("cnp")
	code = strings.TrimSpace(code)
	if err != nil || code == "" {
		return nil, apperr.Validation("CNP is required")
	}

	exists, err := s.repo.Exists(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !exists {
		return nil, apperr.NotFound("Patient not found")
	}

	ch, err := s.changesFrom(code, f)
	if err != nil {
		return nil, err
	}
	if ch.Empty() {
		return nil, apperr.BadRequest("No fields to update")
	}

	if err := s.repo.Update(ctx, code, ch); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Patient not found")
		}
		return nil, writeError(err)
	}
	return s.Get(ctx, code)
}

func (s *Service) changesFrom(code string, f payload.Fields) (Changes, error) {
	var ch Changes
	for _, t := range []struct {
		key string
		dst **string
	}{
		{"nume", &ch.Nume},
		{"prenume", &ch.Prenume},
		{"sex", &ch.Sex},
	} {
		if !f.Has(t.key) {
			continue
		}
		v, err := f.String(t.key)
		if err != nil {
			return ch, apperr.Validation("%s", err.Error())
		}
		// Required on create, so they cannot be blanked later.
		if v = textnorm.Clean(v); v == "" {
			return ch, apperr.Validation("field %s must not be blank", t.key)
		}
		*t.dst = &v
	}

	if f.Has("data_nasterii") {
		birth, err := f.Date("data_nasterii")
		if err != nil {
			return ch, apperr.Validation("%s", err.Error())
		}
		cleared := ""
		ch.DataNasterii = &cleared
		if birth != nil {
			ch.DataNasterii = birth
		}
		ch.Varsta = ComputeAge(code, birth, s.now())
	}
	return ch, nil
}

// Delete removes the patient; its hospitalizations go with it through the
// storage cascade.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Validation("CNP is required")
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Patient not found")
		}
		return apperr.Storage(err)
	}
	return nil
}

func readNames(f payload.Fields, nume, prenume, sex *string) error {
	for _, t := range []struct {
		key string
		dst *string
	}{
		{"nume", nume},
		{"prenume", prenume},
		{"sex", sex},
	} {
		v, err := f.String(t.key)
		if err != nil {
			return apperr.Validation("%s", err.Error())
		}
		*t.dst = textnorm.Clean(v)
	}
	return nil
}

// writeError classifies a failed insert or update.
func writeError(err error) error {
	if db.IsStringTooLong(err) {
		return apperr.Validation("Value too long for one of the fields")
	}
	return apperr.Storage(err)
}

// Stub builds the placeholder patient a hospitalization creates for an
// unknown CNP. Identity fields missing from f stay blank; the birth date
// stays NULL.
func Stub(code string, f payload.Fields, now time.Time) (*Patient, error) {
	p := &Patient{CNP: code}
	if err := readNames(f, &p.Nume, &p.Prenume, &p.Sex); err != nil {
		return nil, err
	}
	birth, err := f.Date("data_nasterii")
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	p.DataNasterii = birth
	p.Varsta = ComputeAge(code, birth, now)
	return p, nil
}
