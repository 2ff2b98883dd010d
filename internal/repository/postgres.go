// Package repository содержит реализацию хранения черновиков бронирования в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/skip-selection/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrBookingExists возвращается при повторном сохранении бронирования с тем же идентификатором.
	ErrBookingExists = errors.New("booking already exists")
	// ErrBookingNotFound возвращается, если бронирование не найдено.
	ErrBookingNotFound = errors.New("booking not found")
)

// PostgresRepository предоставляет доступ к хранилищу черновиков бронирования в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, delays: defaultRetryDelays}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// withRetry повторяет fn при временных ошибках БД с паузами из delays.
func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveBooking сохраняет черновик бронирования для следующего шага оформления.
func (r *PostgresRepository) SaveBooking(ctx context.Context, b model.Booking) error {
	return withRetry(ctx, r.delays, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO skip_bookings (
				id, postcode, area, skip_id, size_yards, hire_period_days,
				price_before_vat, vat_percent, allowed_on_road, allows_heavy_waste,
				total_price, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			b.ID, b.Postcode, b.Area, b.Skip.ID, b.Skip.Size, b.Skip.HirePeriodDays,
			b.Skip.PriceBeforeVAT, b.Skip.VATPercent, b.Skip.AllowedOnRoad, b.Skip.AllowsHeavyWaste,
			b.TotalPrice, b.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %s", ErrBookingExists, b.ID)
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

// GetBooking возвращает сохранённый черновик бронирования по идентификатору.
func (r *PostgresRepository) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, postcode, area, skip_id, size_yards, hire_period_days,
		        price_before_vat::float8, vat_percent::float8, allowed_on_road, allows_heavy_waste,
		        total_price::float8, created_at
		 FROM skip_bookings
		 WHERE id = $1`,
		id,
	)

	var b model.Booking
	err := row.Scan(
		&b.ID, &b.Postcode, &b.Area, &b.Skip.ID, &b.Skip.Size, &b.Skip.HirePeriodDays,
		&b.Skip.PriceBeforeVAT, &b.Skip.VATPercent, &b.Skip.AllowedOnRoad, &b.Skip.AllowsHeavyWaste,
		&b.TotalPrice, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}
