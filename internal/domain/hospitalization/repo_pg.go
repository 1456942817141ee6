package hospitalization

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const fromJoin = `spitalizari_de_zi s JOIN pacienti p ON s.cnp_pacient = p.cnp`

const detailCols = `s.id, s.cnp_pacient, s.id_doctor,
	to_char(s.data_spitalizare, 'YYYY-MM-DD'), to_char(s.data_spitalizare, 'DD.MM.YYYY'),
	s.judet, s.localitate, s.spital, s.sectie, s.nr_registru, s.tip_servicii, s.status,
	s.grup_sanguin, s.rh, s.alergic_la,
	s.domiciliu_judet, s.domiciliu_localitate, s.domiciliu_mediu, s.domiciliu_strada, s.domiciliu_numar,
	s.resedinta_same_domiciliu, s.resedinta_judet, s.resedinta_localitate, s.resedinta_mediu,
	s.resedinta_strada, s.resedinta_numar,
	s.cetatenie, s.ocupatia, s.loc_de_munca, s.nivel_instruire,
	s.statut_asigurat, s.categorie_asigurat,
	s.diagnostic_principal, s.cod_icd, s.diagnostice_secundare::text, s.epicriza, s.ultima_modificare,
	p.nume, p.prenume, p.sex, to_char(p.data_nasterii, 'YYYY-MM-DD'), p.varsta`

const summaryCols = `s.id, s.cnp_pacient, s.id_doctor,
	to_char(s.data_spitalizare, 'YYYY-MM-DD'), to_char(s.data_spitalizare, 'DD.MM.YYYY'),
	s.sectie, s.status, s.ultima_modificare, p.nume, p.prenume, p.nume || ' ' || p.prenume`

var searchColumns = []string{"p.nume", "p.prenume", "s.cnp_pacient"}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM spitalizari_de_zi WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("hospitalization exists: %w", err)
	}
	return exists, nil
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Hospitalization, error) {
	var h Hospitalization
	var varsta *int32
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+detailCols+` FROM `+fromJoin+` WHERE s.id = $1`, id).Scan(
		&h.ID, &h.CNPPacient, &h.IDDoctor, &h.DataSpitalizare, &h.DataFormatted,
		&h.Judet, &h.Localitate, &h.Spital, &h.Sectie, &h.NrRegistru, &h.TipServicii, &h.Status,
		&h.GrupSanguin, &h.Rh, &h.AlergicLa,
		&h.DomiciliuJudet, &h.DomiciliuLocalitate, &h.DomiciliuMediu, &h.DomiciliuStrada, &h.DomiciliuNumar,
		&h.ResedintaSameDomiciliu, &h.ResedintaJudet, &h.ResedintaLocalitate, &h.ResedintaMediu,
		&h.ResedintaStrada, &h.ResedintaNumar,
		&h.Cetatenie, &h.Ocupatia, &h.LocDeMunca, &h.NivelInstruire,
		&h.StatutAsigurat, &h.CategorieAsigurat,
		&h.DiagnosticPrincipal, &h.CodICD, &h.rawDiagnoses, &h.Epicriza, &h.UltimaModificare,
		&h.Nume, &h.Prenume, &h.PacientSex, &h.PacientDataNasterii, &varsta,
	)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hospitalization get: %w", err)
	}
	if varsta != nil {
		v := int(*varsta)
		h.PacientVarsta = &v
	}

	for _, c := range Collections {
		items, err := r.items(ctx, id, c)
		if err != nil {
			return nil, err
		}
		*h.Items(c) = items
	}
	if h.Tratamente, err = r.treatments(ctx, id); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *repoPG) items(ctx context.Context, id int64, c Collection) ([]Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, id_spitalizare, denumire, cod, numar FROM `+string(c)+` WHERE id_spitalizare = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("%s list: %w", c, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var numar int32
		if err := rows.Scan(&it.ID, &it.IDSpitalizare, &it.Denumire, &it.Cod, &numar); err != nil {
			return nil, fmt.Errorf("%s scan: %w", c, err)
		}
		it.Numar = int(numar)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s list: %w", c, err)
	}
	return items, nil
}

func (r *repoPG) treatments(ctx context.Context, id int64) ([]Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, id_spitalizare, to_char(data_tratament, 'YYYY-MM-DD'),
		       to_char(data_tratament, 'DD.MM.YYYY'), descriere
		FROM tratamente WHERE id_spitalizare = $1
		ORDER BY data_tratament, id`, id)
	if err != nil {
		return nil, fmt.Errorf("treatment list: %w", err)
	}
	defer rows.Close()

	list := []Treatment{}
	for rows.Next() {
		var t Treatment
		if err := rows.Scan(&t.ID, &t.IDSpitalizare, &t.DataTratament, &t.DataFormatted, &t.Descriere); err != nil {
			return nil, fmt.Errorf("treatment scan: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("treatment list: %w", err)
	}
	return list, nil
}

func scanSummary(row pgx.Row) (*Summary, error) {
	var s Summary
	err := row.Scan(&s.ID, &s.CNPPacient, &s.IDDoctor, &s.DataSpitalizare, &s.DataFormatted,
		&s.Sectie, &s.Status, &s.UltimaModificare, &s.Nume, &s.Prenume, &s.NumeComplet)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) summaries(ctx context.Context, sql string, args ...interface{}) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("hospitalization list: %w", err)
	}
	defer rows.Close()

	items := []*Summary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("hospitalization scan: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hospitalization list: %w", err)
	}
	return items, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Summary, int, error) {
	q := query.NewSearchQuery(fromJoin, summaryCols)
	q.AddContains(searchColumns, f.Search)
	if f.Status != "" {
		q.AddEq("s.status", f.Status)
	}
	if f.Sectie != "" {
		q.AddEq("s.sectie", f.Sectie)
	}
	q.OrderBy("s.data_spitalizare DESC, s.id DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("hospitalization count: %w", err)
	}
	items, err := r.summaries(ctx, q.DataSQL(), q.DataArgs()...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, cnp string) ([]*Summary, error) {
	q := query.NewSearchQuery(fromJoin, summaryCols)
	q.AddEq("s.cnp_pacient", cnp)
	q.OrderBy("s.data_spitalizare DESC, s.id DESC")
	return r.summaries(ctx, q.DataSQL(), q.DataArgs()...)
}

func (r *repoPG) Insert(ctx context.Context, cnp string, set []query.Assignment) (int64, error) {
	all := append([]query.Assignment{{Column: "cnp_pacient", Value: cnp}}, set...)
	sql, args := query.InsertSQL("spitalizari_de_zi", all, "id")

	var id int64
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("hospitalization insert: %w", err)
	}
	return id, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, set []query.Assignment) error {
	sql, args := query.UpdateSQL("spitalizari_de_zi", set, "id", id)
	if sql == "" {
		return nil
	}
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("hospitalization update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM spitalizari_de_zi WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hospitalization delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteItems(ctx context.Context, id int64, c Collection) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM `+string(c)+` WHERE id_spitalizare = $1`, id); err != nil {
		return fmt.Errorf("%s delete: %w", c, err)
	}
	return nil
}

func (r *repoPG) InsertItem(ctx context.Context, id int64, c Collection, it Item) error {
	sql, args := query.InsertSQL(string(c), []query.Assignment{
		{Column: "id_spitalizare", Value: id},
		{Column: "denumire", Value: it.Denumire},
		{Column: "cod", Value: it.Cod},
		{Column: "numar", Value: it.Numar},
	}, "")
	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s insert: %w", c, err)
	}
	return nil
}

func (r *repoPG) DeleteTreatments(ctx context.Context, id int64) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM tratamente WHERE id_spitalizare = $1`, id); err != nil {
		return fmt.Errorf("treatment delete: %w", err)
	}
	return nil
}

func (r *repoPG) InsertTreatment(ctx context.Context, id int64, t Treatment) error {
	sql, args := query.InsertSQL(TreatmentsKey, []query.Assignment{
		{Column: "id_spitalizare", Value: id},
		{Column: "data_tratament", Value: t.DataTratament, Cast: "date"},
		{Column: "descriere", Value: t.Descriere},
	}, "")
	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("treatment insert: %w", err)
	}
	return nil
}
