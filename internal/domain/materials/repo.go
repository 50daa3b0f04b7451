package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/buildmat/internal/infra/db"
)

type Repo struct{ pool db.Querier }

func NewRepo(pool db.Querier) *Repo { return &Repo{pool: pool} }

const selectCols = `id, item_name, price_per_unit, unit_type, quantity_in_stock, supplier_id`

func scanMaterial(row pgx.Row, m *Material) error {
	return row.Scan(&m.ID, &m.Name, &m.PricePerUnit, &m.UnitType, &m.QuantityInStock, &m.SupplierID)
}

/* Materials CRUD */

func (r *Repo) Create(ctx context.Context, in NewMaterial) (*Material, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO materials (item_name, price_per_unit, unit_type, quantity_in_stock, supplier_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+selectCols, in.Name, in.PricePerUnit, in.UnitType, in.Quantity, in.SupplierID)

	var m Material
	if err := scanMaterial(row, &m); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrUnknownSupplier
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM materials WHERE id = $1`, id)
	var m Material
	if err := scanMaterial(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) List(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectCols+` FROM materials ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// SearchByName ищет материалы по части названия, без учёта регистра.
func (r *Repo) SearchByName(ctx context.Context, q string) ([]Material, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectCols+`
		FROM materials
		WHERE LOWER(item_name) LIKE $1
		ORDER BY item_name
	`, db.ContainsPattern(q))
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

func (r *Repo) Update(ctx context.Context, id int64, u Update) (*Material, error) {
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var set db.UpdateSet
	if u.Name != nil {
		set.Add("item_name", strings.TrimSpace(*u.Name))
	}
	if u.PricePerUnit != nil {
		set.Add("price_per_unit", *u.PricePerUnit)
	}
	if u.UnitType != nil {
		set.Add("unit_type", *u.UnitType)
	}
	if u.Quantity != nil {
		set.Add("quantity_in_stock", *u.Quantity)
	}
	if u.SupplierID != nil {
		set.Add("supplier_id", *u.SupplierID)
	}
	q, args := set.Build("materials", "id", id)

	var m Material
	err := scanMaterial(r.pool.QueryRow(ctx, q+` RETURNING `+selectCols, args...), &m)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case db.IsForeignKeyViolation(err):
		return nil, ErrUnknownSupplier
	case err != nil:
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
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

/* Stock */

// GetStock возвращает текущий остаток; ErrNotFound, если материала нет.
func (r *Repo) GetStock(ctx context.Context, id int64) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, `SELECT quantity_in_stock FROM materials WHERE id = $1`, id).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return qty, err
}

// Restock увеличивает остаток на qty и возвращает новое значение.
func (r *Repo) Restock(ctx context.Context, id int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrNonPositiveRestock
	}
	var stock int
	err := r.pool.QueryRow(ctx, `
		UPDATE materials SET quantity_in_stock = quantity_in_stock + $2
		WHERE id = $1
		RETURNING quantity_in_stock
	`, id, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return stock, err
}

// ListLowStock: материалы с остатком <= threshold, по возрастанию остатка, затем по имени.
func (r *Repo) ListLowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT item_name, quantity_in_stock, unit_type, supplier_id
		FROM materials
		WHERE quantity_in_stock <= $1
		ORDER BY quantity_in_stock, item_name
	`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockItem
	for rows.Next() {
		var it LowStockItem
		if err := rows.Scan(&it.ItemName, &it.QuantityInStock, &it.UnitType, &it.SupplierID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanAll(rows pgx.Rows) ([]Material, error) {
	defer rows.Close()
	var out []Material
	for rows.Next() {
		var m Material
		if err := scanMaterial(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
