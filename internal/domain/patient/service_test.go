package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/payload"
)

// -- Mock Patient Repository --

type mockRepo struct {
	patients  map[string]*Patient
	failWith  error
	seq       int
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[string]*Patient)}
}

func (m *mockRepo) Get(_ context.Context, cnp string) (*Patient, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.patients[cnp]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Exists(_ context.Context, cnp string) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.patients[cnp]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]*Patient, int, error) {
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	term := strings.ToLower(f.Search)
	items := []*Patient{}
	for _, p := range m.patients {
		if term == "" || strings.Contains(strings.ToLower(p.Nume+" "+p.Prenume+" "+p.CNP), term) {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DataAdaugarii > items[j].DataAdaugarii })
	return items, len(items), nil
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	cp := *p
	cp.DataAdaugarii = time.Date(2026, 10, 19, 8, 0, m.seq, 0, time.UTC).Format("2006-01-02 15:04:05")
	cp.DataAdaugariiFormatted = "19.10.2026"
	m.patients[p.CNP] = &cp
	return nil
}

func (m *mockRepo) CreateStub(ctx context.Context, p *Patient) (bool, error) {
	if _, ok := m.patients[p.CNP]; ok {
		return false, nil
	}
	return true, m.Create(ctx, p)
}

func (m *mockRepo) Update(_ context.Context, cnp string, ch Changes) error {
	p, ok := m.patients[cnp]
	if !ok {
		return ErrNotFound
	}
	if ch.Nume != nil {
		p.Nume = *ch.Nume
	}
	if ch.Prenume != nil {
		p.Prenume = *ch.Prenume
	}
	if ch.Sex != nil {
		p.Sex = *ch.Sex
	}
	if ch.DataNasterii != nil {
		p.DataNasterii = nil
		if *ch.DataNasterii != "" {
			v := *ch.DataNasterii
			p.DataNasterii = &v
		}
		p.Varsta = ch.Varsta
	}
	return nil
}

func (m *mockRepo) Delete(_ context.Context, cnp string) error {
	if _, ok := m.patients[cnp]; !ok {
		return ErrNotFound
	}
	delete(m.patients, cnp)
	return nil
}

func uniqueViolation() error {
	return fmt.Errorf("patient create: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
}

var evalDate = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return evalDate }
	return svc, repo
}

func fields(t *testing.T, body string) payload.Fields {
	t.Helper()
	f, err := payload.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse %s: %v", body, err)
	}
	return f
}

const testPatient = `{"cnp":"1780115123456","nume":"Test","prenume":"A","sex":"M","data_nasterii":"1978-01-15"}`

func TestService_Create_ComputesAge(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), fields(t, testPatient))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.Varsta == nil || *p.Varsta != 48 {
		t.Errorf("expected varsta 48, got %v", p.Varsta)
	}
	if p.DataNasterii == nil || *p.DataNasterii != "1978-01-15" {
		t.Errorf("unexpected birth date %v", p.DataNasterii)
	}
}

func TestService_Create_Duplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, fields(t, testPatient)); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	_, err := svc.Create(ctx, fields(t, testPatient))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "Patient with this CNP already exists" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing nume", `{"cnp":"1780115123456","prenume":"A","sex":"M","data_nasterii":"1978-01-15"}`, "Missing required field: nume"},
		{"blank sex", `{"cnp":"1780115123456","nume":"T","prenume":"A","sex":"","data_nasterii":"1978-01-15"}`, "Missing required field: sex"},
		{"short cnp", `{"cnp":"12345","nume":"T","prenume":"A","sex":"M","data_nasterii":"1978-01-15"}`, "Invalid CNP format. Must be 13 digits."},
		{"letters in cnp", `{"cnp":"17801151234AB","nume":"T","prenume":"A","sex":"M","data_nasterii":"1978-01-15"}`, "Invalid CNP format. Must be 13 digits."},
		{"bad date", `{"cnp":"1780115123456","nume":"T","prenume":"A","sex":"M","data_nasterii":"15.01.1978"}`, "field data_nasterii must be a date in YYYY-MM-DD format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), fields(t, tt.body))
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestService_Create_UniqueViolationIsConflict(t *testing.T) {
	svc, repo := newTestService()
	repo.createErr = uniqueViolation()

	_, err := svc.Create(context.Background(), fields(t, testPatient))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_Create_AgeFallsBackToBirthDate(t *testing.T) {
	svc, _ := newTestService()

	// Month 13 cannot be decoded from the code.
	body := `{"cnp":"1781315123456","nume":"T","prenume":"A","sex":"M","data_nasterii":"1980-06-01"}`
	p, err := svc.Create(context.Background(), fields(t, body))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.Varsta == nil || *p.Varsta != 46 {
		t.Errorf("expected varsta 46 from birth date, got %v", p.Varsta)
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, fields(t, testPatient)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	p, err := svc.Update(ctx, fields(t, `{"cnp":"1780115123456","nume":"  Popescu ","sex":null}`))
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if p.Nume != "Popescu" {
		t.Errorf("expected trimmed nume, got %q", p.Nume)
	}
	if p.Sex != "M" {
		t.Errorf("null sex must leave the field untouched, got %q", p.Sex)
	}
	if p.Prenume != "A" {
		t.Errorf("prenume changed unexpectedly: %q", p.Prenume)
	}
}

func TestService_Update_RecomputesAgeWithBirthDate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, fields(t, testPatient)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	stale := 1
	repo.patients["1780115123456"].Varsta = &stale

	p, err := svc.Update(ctx, fields(t, `{"cnp":"1780115123456","data_nasterii":"1978-01-15"}`))
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if p.Varsta == nil || *p.Varsta != 48 {
		t.Errorf("expected recomputed varsta 48, got %v", p.Varsta)
	}

	// Without a birth date the stored age is left alone.
	repo.patients["1780115123456"].Varsta = &stale
	p, _ = svc.Update(ctx, fields(t, `{"cnp":"1780115123456","nume":"X"}`))
	if p.Varsta == nil || *p.Varsta != 1 {
		t.Errorf("age must not change without data_nasterii, got %v", p.Varsta)
	}
}

func TestService_Update_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, fields(t, testPatient)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.Update(ctx, fields(t, `{"nume":"X"}`)); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error without cnp, got %v", err)
	}
	if _, err := svc.Update(ctx, fields(t, `{"cnp":"2990101123456","nume":"X"}`)); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	_, err := svc.Update(ctx, fields(t, `{"cnp":"1780115123456","varsta":99,"cnp_nou":"x"}`))
	if apperr.KindOf(err) != apperr.KindBadRequest || err.Error() != "No fields to update" {
		t.Errorf("expected No fields to update, got %v", err)
	}

	for _, body := range []string{
		`{"cnp":"1780115123456","nume":"   "}`,
		`{"cnp":"1780115123456","prenume":""}`,
		`{"cnp":"1780115123456","sex":" "}`,
	} {
		if _, err := svc.Update(ctx, fields(t, body)); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: expected validation error, got %v", body, err)
		}
	}
	p, _ := svc.Get(ctx, "1780115123456")
	if p.Nume != "Test" || p.Prenume != "A" || p.Sex != "M" {
		t.Errorf("blank update must not change the record, got %+v", p)
	}
}

func TestService_ValueTooLong(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.createErr = fmt.Errorf("patient create: %w", &pgconn.PgError{Code: "22001", Message: "value too long for type character varying(10)"})

	_, err := svc.Create(ctx, fields(t, testPatient))
	if apperr.KindOf(err) != apperr.KindValidation || apperr.StatusOf(err) != 400 {
		t.Errorf("expected 400 validation error, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, fields(t, testPatient)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := svc.Delete(ctx, "1780115123456"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(repo.patients) != 0 {
		t.Error("expected patient to be removed")
	}
	if err := svc.Delete(ctx, "1780115123456"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
	if err := svc.Delete(ctx, " "); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error for blank cnp, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, fields(t, testPatient))
	svc.Create(ctx, fields(t, `{"cnp":"2850304123456","nume":"Ionescu","prenume":"Maria","sex":"F","data_nasterii":"1985-03-04"}`))

	items, total, err := svc.List(ctx, Filter{Search: "iones"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Nume != "Ionescu" {
		t.Errorf("unexpected result %d %+v", total, items)
	}

	items, total, _ = svc.List(ctx, Filter{})
	if total != 2 || items[0].CNP != "2850304123456" {
		t.Errorf("expected newest first, got %+v", items)
	}
}

func TestService_StorageErrors(t *testing.T) {
	svc, repo := newTestService()
	repo.failWith = errors.New("connection reset")

	_, err := svc.Get(context.Background(), "1780115123456")
	if apperr.KindOf(err) != apperr.KindStorage || err.Error() != "Database error: connection reset" {
		t.Errorf("expected storage error, got %v", err)
	}
	if _, _, err := svc.List(context.Background(), Filter{}); apperr.KindOf(err) != apperr.KindStorage {
		t.Errorf("expected storage error from list, got %v", err)
	}
}

func TestStub(t *testing.T) {
	p, err := Stub("1780115123456", fields(t, `{"cnp":"1780115123456","nume":"Pop"}`), evalDate)
	if err != nil {
		t.Fatalf("Stub() error: %v", err)
	}
	if p.Nume != "Pop" || p.Prenume != "" || p.Sex != "" || p.DataNasterii != nil {
		t.Errorf("unexpected stub %+v", p)
	}
	if p.Varsta == nil || *p.Varsta != 48 {
		t.Errorf("expected stub age 48, got %v", p.Varsta)
	}

	if _, err := Stub("1780115123456", fields(t, `{"data_nasterii":"yesterday"}`), evalDate); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestComputeAge(t *testing.T) {
	birth := "2000-10-20"
	if age := ComputeAge("xx", &birth, evalDate); age == nil || *age != 25 {
		t.Errorf("expected 25 from birth date, got %v", age)
	}
	if age := ComputeAge("xx", nil, evalDate); age != nil {
		t.Errorf("expected unknown age, got %v", *age)
	}
}
