// Package repository реализует хранилище на PostgreSQL: пользователей,
// их прогресс, достижения, дневники активности и платежи.
//
// Все изменения агрегата пользователя проходят через InUserTx, который
// блокирует строку пользователя (SELECT ... FOR UPDATE) до фиксации.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

var _ storage.Storage = (*Storage)(nil)

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'achievements'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table achievements missing")
	}
	return nil
}

// InUserTx блокирует строку пользователя, выполняет fn и сохраняет агрегат.
func (s *Storage) InUserTx(ctx context.Context, userUID string, fn storage.TxFunc) error {
	const op = "storage.InUserTx"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	user, err := scanUser(tx.QueryRowContext(ctx, selectUser+` WHERE uid = $1 FOR UPDATE`, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = fn(ctx, &txRepo{tx: tx}, user); err != nil {
		return err
	}

	if err = saveUser(ctx, tx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// txRepo выполняет запросы в рамках открытой транзакции.
type txRepo struct {
	tx *sql.Tx
}

var _ storage.Tx = (*txRepo)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
