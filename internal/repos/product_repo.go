package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"makhana/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, description, price, discount_price, stock_quantity, category, image, image_public_id, created_at`

// ProductPatch carries the fields of a partial update; nil means "leave as is".
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	StockQuantity *int
	Category      *string
	Image         *string
	ImagePublicID *string
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.DiscountPrice == nil &&
		p.StockQuantity == nil && p.Category == nil && p.Image == nil && p.ImagePublicID == nil
}

// List returns every product, newest first.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY created_at DESC, id DESC`)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, err
}

// FindByIDs returns the products whose ids are listed; unknown ids are skipped.
func (r *ProductRepo) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	out := []domain.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO products (name, description, price, discount_price, stock_quantity, category, image, image_public_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		RETURNING id`),
		p.Name, p.Description, p.Price, p.DiscountPrice, p.StockQuantity, p.Category, p.Image, p.ImagePublicID).Scan(&id)
	return id, err
}

// Update applies only the fields set in patch.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch ProductPatch) error {
	if patch.Empty() {
		return domain.ErrInvalidInput
	}
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.StockQuantity != nil {
		add("stock_quantity", *patch.StockQuantity)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Image != nil {
		add("image", *patch.Image)
	}
	if patch.ImagePublicID != nil {
		add("image_public_id", *patch.ImagePublicID)
	}
	if patch.DiscountPrice != nil {
		add("discount_price", *patch.DiscountPrice)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
