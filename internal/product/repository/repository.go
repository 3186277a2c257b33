package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dcamposl/inventario/internal/common/db"
	"github.com/dcamposl/inventario/internal/product/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	Create(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, id domain.ID) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id domain.ID) error
	List(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, product domain.Product) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO products (id, name, quantity, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		string(product.ID),
		product.Name,
		product.Quantity,
		product.CreatedAt,
		product.UpdatedAt,
	)
	return db.HandleExecError(err, "create product", start)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Product, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, quantity, created_at, updated_at FROM products WHERE id = $1`,
		string(id),
	)

	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, db.HandleQueryError(err, ErrProductNotFound, "find product by id", start)
	}

	return p, nil
}

func (r *PgRepository) Update(ctx context.Context, product domain.Product) error {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE products SET name = $2, quantity = $3, updated_at = $4 WHERE id = $1`,
		string(product.ID),
		product.Name,
		product.Quantity,
		product.UpdatedAt,
	)
	if err != nil {
		return db.HandleExecError(err, "update product", start)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return db.HandleExecError(nil, "update product", start)
}

func (r *PgRepository) Delete(ctx context.Context, id domain.ID) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, string(id))
	if err != nil {
		return db.HandleExecError(err, "delete product", start)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return db.HandleExecError(nil, "delete product", start)
}

// List returns one page ordered by name ascending plus the total count over the
// same filters, so page math always matches what paging can reach.
func (r *PgRepository) List(ctx context.Context, query domain.ListQuery) ([]domain.Product, int, error) {
	where, args := buildFilters(query)

	start := time.Now()
	listArgs := append(append([]any{}, args...), query.Limit, query.Offset())
	rows, err := r.pool.Query(
		ctx,
		fmt.Sprintf(
			`SELECT id, name, quantity, created_at, updated_at FROM products%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
			where, len(args)+1, len(args)+2,
		),
		listArgs...,
	)
	if err != nil {
		return nil, 0, db.HandleQueryError(err, ErrProductNotFound, "list products", start)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, query.Limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, db.HandleQueryError(err, ErrProductNotFound, "list products", start)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.HandleQueryError(err, ErrProductNotFound, "list products", start)
	}

	var total int
	countRow := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM products%s`, where), args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, db.HandleQueryError(err, ErrProductNotFound, "count products", start)
	}

	return products, total, db.HandleQueryError(nil, ErrProductNotFound, "list products", start)
}

func buildFilters(query domain.ListQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if query.MinQuantity != nil {
		args = append(args, *query.MinQuantity)
		clauses = append(clauses, fmt.Sprintf("quantity >= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}
