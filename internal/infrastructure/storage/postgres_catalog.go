package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// PostgresCatalog persists the phone catalog. The sql.DB pool is injected
// at construction time; no package-level connection state.
type PostgresCatalog struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.CatalogStore = (*PostgresCatalog)(nil)

// NewPostgresCatalog wires an injected connection pool.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ActiveBrands lists brands participating in synchronization.
func (c *PostgresCatalog) ActiveBrands(ctx context.Context) ([]domain.Brand, error) {
	query, args, err := c.builder.
		Select("id", "name", "active").
		From("brands").
		Where(sq.Eq{"active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build brands query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	var brands []domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Active); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("brands iteration: %w", err)
	}
	return brands, nil
}

// ActivePhones lists catalog phones eligible for price sync.
func (c *PostgresCatalog) ActivePhones(ctx context.Context) ([]domain.Phone, error) {
	query, args, err := c.phoneSelect().
		Where(sq.Eq{"active": true}).
		OrderBy("brand", "model").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build phones query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	defer rows.Close()

	var phones []domain.Phone
	for rows.Next() {
		phone, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("phones iteration: %w", err)
	}
	return phones, nil
}

// FindPhone matches one record by brand and model, case-insensitively.
func (c *PostgresCatalog) FindPhone(ctx context.Context, brand, model string) (*domain.Phone, error) {
	query, args, err := c.phoneSelect().
		Where(sq.Expr("LOWER(brand) = LOWER(?)", brand)).
		Where(sq.Expr("LOWER(model) = LOWER(?)", model)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}
	return c.findOne(ctx, query, args)
}

// FindPhoneByID fetches one record; a missing id yields nil, not an error.
func (c *PostgresCatalog) FindPhoneByID(ctx context.Context, id string) (*domain.Phone, error) {
	query, args, err := c.phoneSelect().
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}
	return c.findOne(ctx, query, args)
}

func (c *PostgresCatalog) findOne(ctx context.Context, query string, args []any) (*domain.Phone, error) {
	row := c.db.QueryRowContext(ctx, query, args...)
	phone, err := scanPhone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

// CreatePhone inserts a new catalog record and returns it with its id.
func (c *PostgresCatalog) CreatePhone(ctx context.Context, phone domain.Phone) (*domain.Phone, error) {
	if phone.ID == "" {
		phone.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	phone.CreatedAt = now
	phone.UpdatedAt = now

	query, args, err := c.builder.
		Insert("phones").
		Columns("id", "brand", "model", "image_url", "active",
			"display", "processor", "ram", "storage", "battery", "os",
			"rear_camera_mp", "rear_camera_aperture",
			"front_camera_mp", "front_camera_aperture",
			"network", "weight", "created_at", "updated_at").
		Values(phone.ID, phone.Brand, phone.Model, phone.ImageURL, phone.Active,
			phone.Specs.Display, phone.Specs.Processor, phone.Specs.RAM,
			phone.Specs.Storage, phone.Specs.Battery, phone.Specs.OS,
			phone.Specs.RearCamera.Megapixels, phone.Specs.RearCamera.Aperture,
			phone.Specs.FrontCamera.Megapixels, phone.Specs.FrontCamera.Aperture,
			phone.Specs.Network, phone.Specs.Weight, phone.CreatedAt, phone.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert phone: %w", err)
	}
	return &phone, nil
}

// UpdatePhone persists refreshed specifications for an existing record.
func (c *PostgresCatalog) UpdatePhone(ctx context.Context, phone domain.Phone) error {
	query, args, err := c.builder.
		Update("phones").
		Set("image_url", phone.ImageURL).
		Set("display", phone.Specs.Display).
		Set("processor", phone.Specs.Processor).
		Set("ram", phone.Specs.RAM).
		Set("storage", phone.Specs.Storage).
		Set("battery", phone.Specs.Battery).
		Set("os", phone.Specs.OS).
		Set("rear_camera_mp", phone.Specs.RearCamera.Megapixels).
		Set("rear_camera_aperture", phone.Specs.RearCamera.Aperture).
		Set("front_camera_mp", phone.Specs.FrontCamera.Megapixels).
		Set("front_camera_aperture", phone.Specs.FrontCamera.Aperture).
		Set("network", phone.Specs.Network).
		Set("weight", phone.Specs.Weight).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": phone.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update phone: %w", err)
	}
	return nil
}

// UpdatePrices replaces the offer set for one phone inside a transaction.
func (c *PostgresCatalog) UpdatePrices(ctx context.Context, phoneID string, prices []domain.PriceData) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	delQuery, delArgs, err := c.builder.
		Delete("phone_prices").
		Where(sq.Eq{"phone_id": phoneID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("delete old prices: %w", err)
	}

	for _, p := range prices {
		insQuery, insArgs, err := c.builder.
			Insert("phone_prices").
			Columns("phone_id", "retailer", "url", "price", "currency", "in_stock", "retrieved_at").
			Values(phoneID, p.Retailer, p.URL, p.Price, p.Currency, p.InStock, p.RetrievedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build price insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insQuery, insArgs...); err != nil {
			return fmt.Errorf("insert price %s: %w", p.Retailer, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prices: %w", err)
	}
	return nil
}

// PhonesByBrands is a filtered listing for reporting tooling.
func (c *PostgresCatalog) PhonesByBrands(ctx context.Context, brands []string) ([]domain.Phone, error) {
	query, args, err := c.phoneSelect().
		Where(sq.Expr("brand = ANY(?)", pq.StringArray(brands))).
		OrderBy("brand", "model").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build brand filter: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by brands: %w", err)
	}
	defer rows.Close()

	var phones []domain.Phone
	for rows.Next() {
		phone, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("by-brands iteration: %w", err)
	}
	return phones, nil
}

func (c *PostgresCatalog) phoneSelect() sq.SelectBuilder {
	return c.builder.
		Select("id", "brand", "model", "image_url", "active",
			"display", "processor", "ram", "storage", "battery", "os",
			"rear_camera_mp", "rear_camera_aperture",
			"front_camera_mp", "front_camera_aperture",
			"network", "weight", "created_at", "updated_at").
		From("phones")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhone(row rowScanner) (domain.Phone, error) {
	var phone domain.Phone
	err := row.Scan(
		&phone.ID, &phone.Brand, &phone.Model, &phone.ImageURL, &phone.Active,
		&phone.Specs.Display, &phone.Specs.Processor, &phone.Specs.RAM,
		&phone.Specs.Storage, &phone.Specs.Battery, &phone.Specs.OS,
		&phone.Specs.RearCamera.Megapixels, &phone.Specs.RearCamera.Aperture,
		&phone.Specs.FrontCamera.Megapixels, &phone.Specs.FrontCamera.Aperture,
		&phone.Specs.Network, &phone.Specs.Weight, &phone.CreatedAt, &phone.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Phone{}, err
		}
		return domain.Phone{}, fmt.Errorf("scan phone: %w", err)
	}
	return phone, nil
}
