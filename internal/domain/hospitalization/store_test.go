package hospitalization

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eessp/eessp/internal/domain/patient"
	"github.com/eessp/eessp/internal/platform/query"
)

// -- In-memory aggregate store --

// memStore keeps parent rows as column maps so the assignments built by the
// service are stored exactly as the SQL layer would receive them. It serves
// both as the hospitalization Repository and as the PatientStore.
type memStore struct {
	rows       map[int64]map[string]interface{}
	items      map[int64]map[Collection][]Item
	treatments map[int64][]Treatment
	patients   map[string]*patient.Patient
	doctors    map[int64]bool
	nextID     int64
	nextChild  int64

	failItems     Collection
	failTreatment bool
	// beforeStub runs at the start of CreateStub, after Exists reported the
	// patient missing.
	beforeStub func()
	// writeErr is returned by Insert and Update when set.
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{
		rows:       make(map[int64]map[string]interface{}),
		items:      make(map[int64]map[Collection][]Item),
		treatments: make(map[int64][]Treatment),
		patients:   make(map[string]*patient.Patient),
		doctors:    map[int64]bool{7: true},
		nextID:     1,
		nextChild:  1,
	}
}

func (m *memStore) clone() *memStore {
	cp := *m
	cp.rows = make(map[int64]map[string]interface{}, len(m.rows))
	for id, row := range m.rows {
		r := make(map[string]interface{}, len(row))
		for k, v := range row {
			r[k] = v
		}
		cp.rows[id] = r
	}
	cp.items = make(map[int64]map[Collection][]Item, len(m.items))
	for id, byColl := range m.items {
		b := make(map[Collection][]Item, len(byColl))
		for c, list := range byColl {
			b[c] = append([]Item(nil), list...)
		}
		cp.items[id] = b
	}
	cp.treatments = make(map[int64][]Treatment, len(m.treatments))
	for id, list := range m.treatments {
		cp.treatments[id] = append([]Treatment(nil), list...)
	}
	cp.patients = make(map[string]*patient.Patient, len(m.patients))
	for k, p := range m.patients {
		cp.patients[k] = p
	}
	return &cp
}

func fkViolation(what string) error {
	return fmt.Errorf("%s: %w", what, &pgconn.PgError{Code: "23503"})
}

// PatientStore

func (m *memStore) Exists(_ context.Context, code string) (bool, error) {
	_, ok := m.patients[code]
	return ok, nil
}

func (m *memStore) CreateStub(ctx context.Context, p *patient.Patient) (bool, error) {
	if m.beforeStub != nil {
		m.beforeStub()
	}
	if _, ok := m.patients[p.CNP]; ok {
		return false, nil
	}
	cp := *p
	m.patients[p.CNP] = &cp
	return true, nil
}

// Repository. Exists is taken by PatientStore, so the aggregate store is
// exposed through repoView.

type repoView struct{ *memStore }

func (r repoView) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.rows[id]
	return ok, nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Hospitalization, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}

	cols := make(map[string]interface{}, len(row))
	for k, v := range row {
		if k != "diagnostice_secundare" {
			cols[k] = v
		}
	}
	raw, err := json.Marshal(cols)
	if err != nil {
		return nil, err
	}
	var h Hospitalization
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	if d, ok := row["diagnostice_secundare"].(string); ok {
		h.rawDiagnoses = &d
	}
	h.DataFormatted = displayDate(h.DataSpitalizare)

	p := m.patients[h.CNPPacient]
	h.Nume, h.Prenume, h.PacientSex = p.Nume, p.Prenume, p.Sex
	h.PacientDataNasterii, h.PacientVarsta = p.DataNasterii, p.Varsta

	for _, c := range Collections {
		*h.Items(c) = append([]Item{}, m.items[id][c]...)
	}
	list := append([]Treatment{}, m.treatments[id]...)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].DataTratament != list[j].DataTratament {
			return list[i].DataTratament < list[j].DataTratament
		}
		return list[i].ID < list[j].ID
	})
	for i := range list {
		list[i].DataFormatted = displayDate(list[i].DataTratament)
	}
	h.Tratamente = list
	return &h, nil
}

func displayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.Format("02.01.2006")
}

func (m *memStore) summary(id int64) *Summary {
	h, _ := m.Get(context.Background(), id)
	return &Summary{
		ID: h.ID, CNPPacient: h.CNPPacient, IDDoctor: h.IDDoctor,
		DataSpitalizare: h.DataSpitalizare, DataFormatted: h.DataFormatted,
		Sectie: h.Sectie, Status: h.Status, UltimaModificare: h.UltimaModificare,
		Nume: h.Nume, Prenume: h.Prenume, NumeComplet: h.Nume + " " + h.Prenume,
	}
}

func (m *memStore) sorted(keep func(*Summary) bool) []*Summary {
	out := []*Summary{}
	for id := range m.rows {
		if s := m.summary(id); keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DataSpitalizare != out[j].DataSpitalizare {
			return out[i].DataSpitalizare > out[j].DataSpitalizare
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) List(_ context.Context, f Filter) ([]*Summary, int, error) {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := m.sorted(func(s *Summary) bool {
		if term != "" && !strings.Contains(strings.ToLower(s.Nume+"|"+s.Prenume+"|"+s.CNPPacient), term) {
			return false
		}
		if f.Status != "" && s.Status != f.Status {
			return false
		}
		if f.Sectie != "" && (s.Sectie == nil || *s.Sectie != f.Sectie) {
			return false
		}
		return true
	})
	return out, len(out), nil
}

func (m *memStore) ListByPatient(_ context.Context, code string) ([]*Summary, error) {
	return m.sorted(func(s *Summary) bool { return s.CNPPacient == code }), nil
}

func (m *memStore) Insert(_ context.Context, code string, set []query.Assignment) (int64, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if _, ok := m.patients[code]; !ok {
		return 0, fkViolation("hospitalization insert")
	}
	row := map[string]interface{}{"id": m.nextID, "cnp_pacient": code}
	for _, a := range set {
		if a.Column == "id_doctor" && a.Value != nil && !m.doctors[a.Value.(int64)] {
			return 0, fkViolation("hospitalization insert")
		}
		row[a.Column] = a.Value
	}
	id := m.nextID
	m.nextID++
	m.rows[id] = row
	m.items[id] = make(map[Collection][]Item)
	return id, nil
}

func (m *memStore) Update(_ context.Context, id int64, set []query.Assignment) error {
	row, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	for _, a := range set {
		if a.Column == "id_doctor" && a.Value != nil && !m.doctors[a.Value.(int64)] {
			return fkViolation("hospitalization update")
		}
	}
	for _, a := range set {
		row[a.Column] = a.Value
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	delete(m.items, id)
	delete(m.treatments, id)
	return nil
}

func (m *memStore) DeleteItems(_ context.Context, id int64, c Collection) error {
	delete(m.items[id], c)
	return nil
}

func (m *memStore) InsertItem(_ context.Context, id int64, c Collection, it Item) error {
	if c == m.failItems {
		return fmt.Errorf("%s insert: connection reset", c)
	}
	it.ID, it.IDSpitalizare = m.nextChild, id
	m.nextChild++
	m.items[id][c] = append(m.items[id][c], it)
	return nil
}

func (m *memStore) DeleteTreatments(_ context.Context, id int64) error {
	delete(m.treatments, id)
	return nil
}

func (m *memStore) InsertTreatment(_ context.Context, id int64, t Treatment) error {
	if m.failTreatment {
		return fmt.Errorf("treatment insert: connection reset")
	}
	t.ID, t.IDSpitalizare = m.nextChild, id
	m.nextChild++
	m.treatments[id] = append(m.treatments[id], t)
	return nil
}

// -- Fake transaction manager --

// fakeTx snapshots the store on begin and restores it when fn fails.
type fakeTx struct {
	store     *memStore
	commits   int
	rollbacks int
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.clone()
	if err := fn(ctx); err != nil {
		*t.store = *snap
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}
