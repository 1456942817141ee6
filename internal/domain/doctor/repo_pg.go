package doctor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/query"
	"github.com/eessp/eessp/pkg/textnorm"
)

// specSeparator is the canonical delimiter of the specializari column.
const specSeparator = ", "

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorCols = `id, cnp, nume, prenume, specializari, email, telefon, activ,
	to_char(data_angajarii, 'YYYY-MM-DD'), to_char(data_angajarii, 'DD.MM.YYYY')`

var searchColumns = []string{"nume", "prenume", "cnp"}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specs string
	err := row.Scan(&d.ID, &d.CNP, &d.Nume, &d.Prenume, &specs, &d.Email, &d.Telefon, &d.Activ,
		&d.DataAngajarii, &d.DataAngajariiFormatted)
	if err != nil {
		return nil, err
	}
	d.Specializari = textnorm.SplitSet(specs, specSeparator)
	return &d, nil
}

func (r *repoPG) get(ctx context.Context, where string, arg interface{}) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctori WHERE `+where+` = $1`, arg))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctor get: %w", err)
	}
	return d, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	return r.get(ctx, "id", id)
}

func (r *repoPG) GetByCNP(ctx context.Context, cnp string) (*Doctor, error) {
	return r.get(ctx, "cnp", cnp)
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctori WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("doctor exists: %w", err)
	}
	return exists, nil
}

func (r *repoPG) ExistsCNP(ctx context.Context, cnp string) (bool, error) {
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctori WHERE cnp = $1)`, cnp).Scan(&exists); err != nil {
		return false, fmt.Errorf("doctor exists: %w", err)
	}
	return exists, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Doctor, int, error) {
	q := query.NewSearchQuery("doctori", doctorCols)
	q.AddContains(searchColumns, f.Search)
	if f.Activ != nil {
		q.AddEq("activ", *f.Activ)
	}
	q.OrderBy("nume, prenume, id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("doctor count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("doctor list: %w", err)
	}
	defer rows.Close()

	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("doctor scan: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("doctor list: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctori (cnp, nume, prenume, specializari, email, telefon, activ, data_angajarii)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date)
		RETURNING id`,
		d.CNP, d.Nume, d.Prenume, textnorm.JoinSet(d.Specializari, specSeparator),
		d.Email, d.Telefon, d.Activ, d.DataAngajarii,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("doctor create: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, id int64, ch Changes) error {
	var set []query.Assignment
	if ch.Nume != nil {
		set = append(set, query.Assignment{Column: "nume", Value: *ch.Nume})
	}
	if ch.Prenume != nil {
		set = append(set, query.Assignment{Column: "prenume", Value: *ch.Prenume})
	}
	if ch.Specializari != nil {
		set = append(set, query.Assignment{Column: "specializari", Value: textnorm.JoinSet(*ch.Specializari, specSeparator)})
	}
	if ch.Email != nil {
		set = append(set, query.Assignment{Column: "email", Value: *ch.Email})
	}
	if ch.Telefon != nil {
		set = append(set, query.Assignment{Column: "telefon", Value: *ch.Telefon})
	}
	if ch.Activ != nil {
		set = append(set, query.Assignment{Column: "activ", Value: *ch.Activ})
	}
	if ch.DataAngajarii != nil {
		var hired *string
		if *ch.DataAngajarii != "" {
			hired = ch.DataAngajarii
		}
		set = append(set, query.Assignment{Column: "data_angajarii", Value: hired, Cast: "date"})
	}

	sql, args := query.UpdateSQL("doctori", set, "id", id)
	if sql == "" {
		return nil
	}
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("doctor update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctori SET activ = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("doctor deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
