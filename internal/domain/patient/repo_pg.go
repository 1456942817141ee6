package patient

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

const patientCols = `cnp, nume, prenume, sex,
	to_char(data_nasterii, 'YYYY-MM-DD'), varsta,
	to_char(data_adaugarii, 'YYYY-MM-DD HH24:MI:SS'), to_char(data_adaugarii, 'DD.MM.YYYY')`

var searchColumns = []string{"nume", "prenume", "cnp"}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var varsta *int32
	err := row.Scan(&p.CNP, &p.Nume, &p.Prenume, &p.Sex,
		&p.DataNasterii, &varsta, &p.DataAdaugarii, &p.DataAdaugariiFormatted)
	if err != nil {
		return nil, err
	}
	if varsta != nil {
		v := int(*varsta)
		p.Varsta = &v
	}
	return &p, nil
}

func (r *repoPG) Get(ctx context.Context, cnp string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM pacienti WHERE cnp = $1`, cnp))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient get: %w", err)
	}
	return p, nil
}

func (r *repoPG) Exists(ctx context.Context, cnp string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pacienti WHERE cnp = $1)`, cnp).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("patient exists: %w", err)
	}
	return exists, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Patient, int, error) {
	q := query.NewSearchQuery("pacienti", patientCols)
	q.AddContains(searchColumns, f.Search)
	q.OrderBy("data_adaugarii DESC, cnp")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("patient count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("patient scan: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pacienti (cnp, nume, prenume, sex, data_nasterii, varsta)
		VALUES ($1, $2, $3, $4, $5::date, $6)`,
		p.CNP, p.Nume, p.Prenume, p.Sex, p.DataNasterii, p.Varsta,
	)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *repoPG) CreateStub(ctx context.Context, p *Patient) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pacienti (cnp, nume, prenume, sex, data_nasterii, varsta)
		VALUES ($1, $2, $3, $4, $5::date, $6)
		ON CONFLICT (cnp) DO NOTHING`,
		p.CNP, p.Nume, p.Prenume, p.Sex, p.DataNasterii, p.Varsta,
	)
	if err != nil {
		return false, fmt.Errorf("patient stub create: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Update(ctx context.Context, cnp string, ch Changes) error {
	var set []query.Assignment
	if ch.Nume != nil {
		set = append(set, query.Assignment{Column: "nume", Value: *ch.Nume})
	}
	if ch.Prenume != nil {
		set = append(set, query.Assignment{Column: "prenume", Value: *ch.Prenume})
	}
	if ch.Sex != nil {
		set = append(set, query.Assignment{Column: "sex", Value: *ch.Sex})
	}
	if ch.DataNasterii != nil {
		var birth *string
		if *ch.DataNasterii != "" {
			birth = ch.DataNasterii
		}
		set = append(set,
			query.Assignment{Column: "data_nasterii", Value: birth, Cast: "date"},
			query.Assignment{Column: "varsta", Value: ch.Varsta},
		)
	}

	sql, args := query.UpdateSQL("pacienti", set, "cnp", cnp)
	if sql == "" {
		return nil
	}
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("patient update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, cnp string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM pacienti WHERE cnp = $1`, cnp)
	if err != nil {
		return fmt.Errorf("patient delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
