package doctor

import (
	"context"
	"errors"
	"strings"

	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/payload"
	"github.com/eessp/eessp/pkg/cnp"
	"github.com/eessp/eessp/pkg/textnorm"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) found(d *Doctor, err error) (*Doctor, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Doctor, error) {
	return s.found(s.repo.GetByID(ctx, id))
}

func (s *Service) GetByCNP(ctx context.Context, code string) (*Doctor, error) {
	return s.found(s.repo.GetByCNP(ctx, strings.TrimSpace(code)))
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Doctor, int, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

func (s *Service) Create(ctx context.Context, f payload.Fields) (*Doctor, error) {
	for _, field := range []string{"cnp", "nume", "prenume"} {
		if !f.NonEmpty(field) {
			return nil, apperr.Validation("Missing required field: %s", field)
		}
	}

	d := &Doctor{Activ: true}
	code, err := f.String("cnp")
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	d.CNP = strings.TrimSpace(code)
	if !cnp.Valid(d.CNP) {
		return nil, apperr.Validation("Invalid CNP format. Must be 13 digits.")
	}

	// Everything but the key goes through the same whitelist as Update.
	ch, err := changesFrom(f)
	if err != nil {
		return nil, err
	}
	if *ch.Nume == "" {
		return nil, apperr.Validation("Missing required field: nume")
	}
	if *ch.Prenume == "" {
		return nil, apperr.Validation("Missing required field: prenume")
	}
	d.Nume, d.Prenume = *ch.Nume, *ch.Prenume
	d.Specializari = []string{}
	if ch.Specializari != nil {
		d.Specializari = *ch.Specializari
	}
	d.Email, d.Telefon = ch.Email, ch.Telefon
	if ch.Activ != nil {
		d.Activ = *ch.Activ
	}
	if ch.DataAngajarii != nil && *ch.DataAngajarii != "" {
		d.DataAngajarii = ch.DataAngajarii
	}

	exists, err := s.repo.ExistsCNP(ctx, d.CNP)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if exists {
		return nil, apperr.Conflict("Doctor with this CNP already exists")
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Doctor with this CNP already exists")
		}
		return nil, writeError(err)
	}
	return s.Get(ctx, d.ID)
}

func (s *Service) Update(ctx context.Context, f payload.Fields) (*Doctor, error) {
	id, err := f.Int64("id")
	if err != nil || id <= 0 {
		return nil, apperr.Validation("Doctor ID is required")
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !exists {
		return nil, apperr.NotFound("Doctor not found")
	}

	ch, err := changesFrom(f)
	if err != nil {
		return nil, err
	}
	if ch.Empty() {
		return nil, apperr.BadRequest("No fields to update")
	}
	if ch.Nume != nil && *ch.Nume == "" {
		return nil, apperr.Validation("field nume must not be blank")
	}
	if ch.Prenume != nil && *ch.Prenume == "" {
		return nil, apperr.Validation("field prenume must not be blank")
	}

	if err := s.repo.Update(ctx, id, ch); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, writeError(err)
	}
	return s.Get(ctx, id)
}

// Delete deactivates the doctor.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("Doctor ID is required")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Doctor not found")
		}
		return apperr.Storage(err)
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

func changesFrom(f payload.Fields) (Changes, error) {
	var ch Changes
	for _, t := range []struct {
		key string
		dst **string
	}{
		{"nume", &ch.Nume},
		{"prenume", &ch.Prenume},
		{"email", &ch.Email},
		{"telefon", &ch.Telefon},
	} {
		if !f.Has(t.key) {
			continue
		}
		v, err := f.String(t.key)
		if err != nil {
			return ch, apperr.Validation("%s", err.Error())
		}
		v = textnorm.Clean(v)
		*t.dst = &v
	}

	if f.Has("specializari") {
		specs, err := Specializations(f)
		if err != nil {
			return ch, err
		}
		ch.Specializari = &specs
	}

	if f.Has("activ") {
		activ, err := f.Bool("activ")
		if err != nil {
			return ch, apperr.Validation("%s", err.Error())
		}
		ch.Activ = &activ
	}

	if f.Has("data_angajarii") {
		hired, err := f.Date("data_angajarii")
		if err != nil {
			return ch, apperr.Validation("%s", err.Error())
		}
		cleared := ""
		ch.DataAngajarii = &cleared
		if hired != nil {
			ch.DataAngajarii = hired
		}
	}
	return ch, nil
}

// Specializations reads specializari as either a JSON array of strings or a
// comma-delimited string and returns the normalised ordered set.
func Specializations(f payload.Fields) ([]string, error) {
	if s, err := f.String("specializari"); err == nil {
		return textnorm.Set(strings.Split(s, ",")), nil
	}
	list, err := f.Strings("specializari")
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return textnorm.Set(list), nil
}
