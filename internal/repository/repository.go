// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
// Ожидаемое отсутствие записи возвращается как (nil, nil), а не ошибка.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrConflict — нарушение уникальности или ссылки на категорию.
	ErrConflict = errors.New("конфликт — запись уже существует или ссылка недействительна")
	// ErrInUse — запись нельзя удалить, на неё ссылаются другие записи.
	ErrInUse = errors.New("запись используется другими записями")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner — источник транзакций с параметрами (реализуется *pgxpool.Pool).
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// readOnly выполняет fn в транзакции только для чтения с согласованным
// снимком данных. Если db уже транзакция, fn выполняется в ней.
func readOnly(ctx context.Context, db DBTX, fn func(q DBTX) error) error {
	b, ok := db.(txBeginner)
	if !ok {
		return fn(db)
	}

	tx, err := b.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("ошибка начала read-only транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // транзакция только читает

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

// isForeignKeyViolation — нарушение внешнего ключа (23503).
func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == "23503"
}

// isInvalidText — значение не приводится к типу колонки (например, некорректный UUID).
func isInvalidText(err error) bool {
	return pgErrorCode(err) == "22P02"
}
