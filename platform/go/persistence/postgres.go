package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/apperrors"
)

// DefaultQueryTimeout bounds a single store round-trip when no timeout is configured.
const DefaultQueryTimeout = 5 * time.Second

const (
	tenantColumns   = "id, name, subdomain, description, custom_domain, is_active, owner_id, created_at, updated_at"
	userColumns     = "id, email, name, password_hash, tenant_id, created_at, updated_at"
	productColumns  = "p.id, p.tenant_id, p.name, p.slug, p.description, p.price, p.images, p.inventory, p.is_active, p.category_id, p.created_at, p.updated_at"
	categoryColumns = "c.id, c.tenant_id, c.name, c.slug, c.description, c.created_at, c.updated_at"
	orderColumns    = "o.id, o.tenant_id, o.user_id, o.status, o.total, o.created_at"
)

// uniqueConstraintErrors maps unique constraint names to domain sentinels.
var uniqueConstraintErrors = map[string]error{
	"tenants_subdomain_key":         ErrSubdomainTaken,
	"tenants_owner_id_key":          ErrOwnerHasTenant,
	"users_email_key":               ErrEmailTaken,
	"products_tenant_id_slug_key":   ErrSlugTaken,
	"categories_tenant_id_slug_key": ErrSlugTaken,
}

// PostgresStoreConfig configures a PostgresStore.
type PostgresStoreConfig struct {
	Pool         *pgxpool.Pool
	QueryTimeout time.Duration
}

// PostgresStore implements Store on the storefront schema.
// Every round-trip runs under QueryTimeout; a timeout surfaces as a retryable unavailable error.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store; assumes BootstrapSchema already ran.
func NewPostgresStore(cfg PostgresStoreConfig) (*PostgresStore, error) {
	if cfg.Pool == nil {
		return nil, errors.New("pool is required")
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &PostgresStore{pool: cfg.Pool, queryTimeout: timeout}, nil
}

func (s *PostgresStore) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// mapError translates driver failures into persistence sentinels and taxonomy errors.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperrors.Unavailable("the store did not respond in time, retry later", fmt.Errorf("%s: %w", op, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if mapped, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
				return mapped
			}
		case "23503":
			return ErrInvalidReference
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return mapError("ping", s.pool.Ping(ctx))
}

// CreateTenantWithOwner inserts the tenant and points the owner at it in one transaction.
func (s *PostgresStore) CreateTenantWithOwner(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var created TenantRecord
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (id, name, subdomain, description, custom_domain, is_active, owner_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING %s
        `, TenantsTable, tenantColumns),
			rec.ID, rec.Name, rec.Subdomain, rec.Description, nilIfEmpty(rec.CustomDomain), rec.IsActive, rec.OwnerID,
		)

		var err error
		if created, err = scanTenant(row); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET tenant_id = $1, updated_at = clock_timestamp() WHERE id = $2
        `, UsersTable), created.ID, created.OwnerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidReference
		}
		return nil
	})
	if err != nil {
		return TenantRecord{}, mapError("create tenant", err)
	}

	return created, nil
}

func (s *PostgresStore) GetTenantByID(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	return s.getTenant(ctx, "id = $1", id)
}

func (s *PostgresStore) GetTenantBySubdomain(ctx context.Context, subdomain string) (TenantRecord, error) {
	return s.getTenant(ctx, "subdomain = $1", subdomain)
}

func (s *PostgresStore) GetTenantByOwner(ctx context.Context, ownerID uuid.UUID) (TenantRecord, error) {
	return s.getTenant(ctx, "owner_id = $1", ownerID)
}

func (s *PostgresStore) getTenant(ctx context.Context, predicate string, arg any) (TenantRecord, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, tenantColumns, TenantsTable, predicate), arg)
	rec, err := scanTenant(row)
	if err != nil {
		return TenantRecord{}, mapError("get tenant", err)
	}
	return rec, nil
}

func (s *PostgresStore) UpdateTenant(ctx context.Context, id uuid.UUID, update TenantUpdate) (TenantRecord, error) {
	set := &whereBuilder{}
	if update.Name != nil {
		set.add("name = $%d", strings.TrimSpace(*update.Name))
	}
	if update.Description != nil {
		set.add("description = $%d", *update.Description)
	}
	if update.CustomDomain != nil {
		set.add("custom_domain = $%d", nilIfEmpty(update.CustomDomain))
	}
	set.raw("updated_at = clock_timestamp()")
	set.args = append(set.args, id)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET %s WHERE id = $%d
        RETURNING %s
    `, TenantsTable, strings.Join(set.parts, ", "), len(set.args), tenantColumns), set.args...)

	rec, err := scanTenant(row)
	if err != nil {
		return TenantRecord{}, mapError("update tenant", err)
	}
	return rec, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, rec UserRecord) (UserRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, email, name, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, UsersTable, userColumns),
		rec.ID, strings.ToLower(strings.TrimSpace(rec.Email)), rec.Name, rec.PasswordHash,
	)

	created, err := scanUser(row)
	if err != nil {
		return UserRecord{}, mapError("create user", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	return s.getUser(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (s *PostgresStore) getUser(ctx context.Context, predicate string, arg any) (UserRecord, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, userColumns, UsersTable, predicate), arg)
	rec, err := scanUser(row)
	if err != nil {
		return UserRecord{}, mapError("get user", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindProducts(ctx context.Context, query ProductQuery) ([]ProductRecord, error) {
	w := &whereBuilder{}
	query.Filter.build(w)
	if query.Cursor != nil {
		// An unknown cursor compares against NULL and yields an empty page.
		w.add("(p.created_at, p.id) <= (SELECT cur.created_at, cur.id FROM "+ProductsTable+" cur WHERE cur.id = $%d)", *query.Cursor)
	}

	sql := fmt.Sprintf(`
        SELECT %s FROM %s p
        WHERE %s
        ORDER BY p.created_at DESC, p.id DESC
    `, productColumns, ProductsTable, w.sql())
	args := w.args
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()

	out := make([]ProductRecord, 0)
	for rows.Next() {
		rec, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, mapError("scan product", scanErr)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate products", err)
	}
	return out, nil
}

func (s *PostgresStore) CountProducts(ctx context.Context, filter ProductFilter) (int64, error) {
	w := &whereBuilder{}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var total int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s p WHERE %s`, ProductsTable, w.sql()), w.args...).Scan(&total)
	if err != nil {
		return 0, mapError("count products", err)
	}
	return total, nil
}

func (s *PostgresStore) AggregateProducts(ctx context.Context, filter ProductFilter) (ProductAggregate, error) {
	w := &whereBuilder{}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var agg ProductAggregate
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*),
               COALESCE(SUM(p.inventory), 0),
               COALESCE(MIN(p.price), 0),
               COALESCE(MAX(p.price), 0),
               COALESCE(ROUND(AVG(p.price), 2), 0)
        FROM %s p WHERE %s
    `, ProductsTable, w.sql()), w.args...).Scan(
		&agg.Count, &agg.TotalInventory, &agg.MinPrice, &agg.MaxPrice, &agg.AveragePrice,
	)
	if err != nil {
		return ProductAggregate{}, mapError("aggregate products", err)
	}
	return agg, nil
}

// InsertProducts writes the batch in one transaction.
func (s *PostgresStore) InsertProducts(ctx context.Context, recs []ProductRecord) ([]ProductRecord, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	out := make([]ProductRecord, 0, len(recs))
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			images := rec.Images
			if images == nil {
				images = []string{}
			}
			row := tx.QueryRow(ctx, fmt.Sprintf(`
                INSERT INTO %s AS p (id, tenant_id, name, slug, description, price, images, inventory, is_active, category_id)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                RETURNING %s
            `, ProductsTable, productColumns),
				rec.ID, rec.TenantID, rec.Name, rec.Slug, rec.Description, rec.Price, images,
				rec.Inventory, rec.IsActive, rec.CategoryID,
			)
			created, err := scanProduct(row)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("insert products", err)
	}
	return out, nil
}

// UpdateProduct requires an id filter so a broad filter never mutates an arbitrary row.
func (s *PostgresStore) UpdateProduct(ctx context.Context, filter ProductFilter, update ProductUpdate) (ProductRecord, error) {
	if filter.ID == nil {
		return ProductRecord{}, ErrNotFound
	}

	set := &whereBuilder{}
	if update.Name != nil {
		set.add("name = $%d", *update.Name)
	}
	if update.Description != nil {
		set.add("description = $%d", *update.Description)
	}
	if update.Price != nil {
		set.add("price = $%d", *update.Price)
	}
	if update.Images != nil {
		images := *update.Images
		if images == nil {
			images = []string{}
		}
		set.add("images = $%d", images)
	}
	if update.Inventory != nil {
		set.add("inventory = $%d", *update.Inventory)
	}
	if update.IsActive != nil {
		set.add("is_active = $%d", *update.IsActive)
	}
	if update.CategoryID != nil {
		set.add("category_id = $%d", *update.CategoryID)
	}
	set.raw("updated_at = clock_timestamp()")

	w := &whereBuilder{args: set.args}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s AS p SET %s
        WHERE %s
        RETURNING %s
    `, ProductsTable, strings.Join(set.parts, ", "), w.sql(), productColumns), w.args...)

	rec, err := scanProduct(row)
	if err != nil {
		return ProductRecord{}, mapError("update product", err)
	}
	return rec, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, filter ProductFilter) error {
	if filter.ID == nil {
		return ErrNotFound
	}

	w := &whereBuilder{}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s AS p WHERE %s`, ProductsTable, w.sql()), w.args...)
	if err != nil {
		return mapError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindCategories(ctx context.Context, filter CategoryFilter, limit int) ([]CategoryRecord, error) {
	w := &whereBuilder{}
	filter.build(w)

	sql := fmt.Sprintf(`SELECT %s FROM %s c WHERE %s ORDER BY c.name ASC, c.id ASC`, categoryColumns, CategoriesTable, w.sql())
	args := w.args
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list categories", err)
	}
	defer rows.Close()

	out := make([]CategoryRecord, 0)
	for rows.Next() {
		rec, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, mapError("scan category", scanErr)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate categories", err)
	}
	return out, nil
}

func (s *PostgresStore) CountCategories(ctx context.Context, filter CategoryFilter) (int64, error) {
	w := &whereBuilder{}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var total int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s c WHERE %s`, CategoriesTable, w.sql()), w.args...).Scan(&total); err != nil {
		return 0, mapError("count categories", err)
	}
	return total, nil
}

func (s *PostgresStore) InsertCategories(ctx context.Context, recs []CategoryRecord) ([]CategoryRecord, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	out := make([]CategoryRecord, 0, len(recs))
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			row := tx.QueryRow(ctx, fmt.Sprintf(`
                INSERT INTO %s AS c (id, tenant_id, name, slug, description)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING %s
            `, CategoriesTable, categoryColumns), rec.ID, rec.TenantID, rec.Name, rec.Slug, rec.Description)
			created, err := scanCategory(row)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("insert categories", err)
	}
	return out, nil
}

func (s *PostgresStore) FindOrders(ctx context.Context, filter OrderFilter, limit int) ([]OrderRecord, error) {
	w := &whereBuilder{}
	filter.build(w)

	sql := fmt.Sprintf(`SELECT %s FROM %s o WHERE %s ORDER BY o.created_at DESC, o.id DESC`, orderColumns, OrdersTable, w.sql())
	args := w.args
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list orders", err)
	}
	defer rows.Close()

	out := make([]OrderRecord, 0)
	for rows.Next() {
		rec, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, mapError("scan order", scanErr)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate orders", err)
	}
	return out, nil
}

func (s *PostgresStore) CountOrders(ctx context.Context, filter OrderFilter) (int64, error) {
	agg, err := s.AggregateOrders(ctx, filter)
	return agg.Count, err
}

func (s *PostgresStore) AggregateOrders(ctx context.Context, filter OrderFilter) (OrderAggregate, error) {
	w := &whereBuilder{}
	filter.build(w)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var agg OrderAggregate
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*), COALESCE(SUM(o.total), 0) FROM %s o WHERE %s
    `, OrdersTable, w.sql()), w.args...).Scan(&agg.Count, &agg.Total)
	if err != nil {
		return OrderAggregate{}, mapError("aggregate orders", err)
	}
	return agg, nil
}

func (s *PostgresStore) InsertOrders(ctx context.Context, recs []OrderRecord) ([]OrderRecord, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	out := make([]OrderRecord, 0, len(recs))
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			if rec.Status == "" {
				rec.Status = "pending"
			}
			row := tx.QueryRow(ctx, fmt.Sprintf(`
                INSERT INTO %s AS o (id, tenant_id, user_id, status, total)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING %s
            `, OrdersTable, orderColumns), rec.ID, rec.TenantID, rec.UserID, rec.Status, rec.Total)
			created, err := scanOrder(row)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("insert orders", err)
	}
	return out, nil
}

func scanTenant(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Subdomain, &rec.Description, &rec.CustomDomain,
		&rec.IsActive, &rec.OwnerID, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var rec UserRecord
	err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.PasswordHash, &rec.TenantID, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func scanProduct(row pgx.Row) (ProductRecord, error) {
	var rec ProductRecord
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.Name, &rec.Slug, &rec.Description, &rec.Price, &rec.Images,
		&rec.Inventory, &rec.IsActive, &rec.CategoryID, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func scanCategory(row pgx.Row) (CategoryRecord, error) {
	var rec CategoryRecord
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.Name, &rec.Slug, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func scanOrder(row pgx.Row) (OrderRecord, error) {
	var rec OrderRecord
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.Status, &rec.Total, &rec.CreatedAt)
	return rec, err
}
