package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/buildmat/internal/infra/db"
)

type Repo struct{ pool db.Querier }

func NewRepo(pool db.Querier) *Repo { return &Repo{pool: pool} }

const selectCols = `customer_id, customer_name, phone, address`

func (r *Repo) Create(ctx context.Context, name, phone, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if err := Validate(name, phone); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (customer_name, phone, address)
		VALUES ($1,$2,$3)
		RETURNING `+selectCols, name, phone, address)

	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM customers WHERE customer_id = $1`, id)
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectCols+` FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// SearchByName ищет покупателей по части имени, без учёта регистра.
func (r *Repo) SearchByName(ctx context.Context, q string) ([]Customer, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectCols+`
		FROM customers
		WHERE LOWER(customer_name) LIKE $1
		ORDER BY customer_name
	`, db.ContainsPattern(q))
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

func (r *Repo) Update(ctx context.Context, id int64, u Update) (*Customer, error) {
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var set db.UpdateSet
	if u.Name != nil {
		set.Add("customer_name", strings.TrimSpace(*u.Name))
	}
	if u.Phone != nil {
		set.Add("phone", *u.Phone)
	}
	if u.Address != nil {
		set.Add("address", *u.Address)
	}
	q, args := set.Build("customers", "customer_id", id)

	var c Customer
	err := r.pool.QueryRow(ctx, q+` RETURNING `+selectCols, args...).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrReferenced
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAll(rows pgx.Rows) ([]Customer, error) {
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
