package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/funkoworld/internal/domain/model"
)

// Ключи сортировки списка Funko.
const (
	SortByName      = "nombre"
	SortByPrice     = "precio"
	SortByCreatedAt = "createdat"
	SortByCategory  = "categoria"
)

// FunkoQuery — параметры выборки списка Funko.
// Page и Size не проверяются: корректность границ обеспечивает вызывающий.
type FunkoQuery struct {
	// Name — подстрока названия (без учёта регистра)
	Name *string
	// Category — подстрока имени категории (без учёта регистра)
	Category *string
	// MaxPrice — верхняя граница цены включительно
	MaxPrice *float64
	Page     int
	Size     int
	SortBy   string
	Desc     bool
}

// FunkoRepository — интерфейс CRUD для таблицы funkos.
// Все возвращаемые Funko содержат связанную категорию.
type FunkoRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Funko, error)
	// GetAll возвращает страницу и общее число записей, подходящих под фильтр.
	GetAll(ctx context.Context, q FunkoQuery) ([]*model.Funko, int, error)
	Create(ctx context.Context, f *model.Funko) (*model.Funko, error)
	// Update заменяет поля Funko; nil, если записи нет.
	Update(ctx context.Context, f *model.Funko) (*model.Funko, error)
	// Delete удаляет Funko и возвращает удалённую запись; nil, если записи нет.
	Delete(ctx context.Context, id int64) (*model.Funko, error)
	// Snapshot — согласованный снимок всех Funko для массового чтения.
	Snapshot(ctx context.Context) ([]model.Funko, error)
}

type funkoRepo struct {
	db DBTX
}

// NewFunkoRepository создаёт репозиторий Funko.
func NewFunkoRepository(db DBTX) FunkoRepository {
	return &funkoRepo{db: db}
}

const funkoSelect = `
	SELECT f.id, f.name, f.price, f.image, f.category_id, f.created_at, f.updated_at,
		c.id, c.name, c.created_at, c.updated_at`

func scanFunko(row pgx.Row) (*model.Funko, error) {
	f := &model.Funko{Category: &model.Category{}}
	err := row.Scan(
		&f.ID, &f.Name, &f.Price, &f.Image, &f.CategoryID, &f.CreatedAt, &f.UpdatedAt,
		&f.Category.ID, &f.Category.Name, &f.Category.CreatedAt, &f.Category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *funkoRepo) GetByID(ctx context.Context, id int64) (*model.Funko, error) {
	query := funkoSelect + `
		FROM funkos f JOIN categories c ON c.id = f.category_id
		WHERE f.id = $1`

	f, err := scanFunko(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения Funko: %w", err)
	}
	return f, nil
}

func (r *funkoRepo) GetAll(ctx context.Context, q FunkoQuery) ([]*model.Funko, int, error) {
	where, args := buildFunkoWhere(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM funkos f JOIN categories c ON c.id = f.category_id ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта Funko: %w", err)
	}

	argNum := len(args) + 1
	query := fmt.Sprintf(`%s
		FROM funkos f JOIN categories c ON c.id = f.category_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, funkoSelect, where, funkoOrderBy(q.SortBy, q.Desc), argNum, argNum+1)
	args = append(args, q.Size, (q.Page-1)*q.Size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка Funko: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Funko, 0, max(q.Size, 0))
	for rows.Next() {
		f, err := scanFunko(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования Funko: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения списка Funko: %w", err)
	}
	return result, total, nil
}

func (r *funkoRepo) Create(ctx context.Context, f *model.Funko) (*model.Funko, error) {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = now
	}

	query := `
		WITH f AS (
			INSERT INTO funkos (name, price, image, category_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)` + funkoSelect + `
		FROM f JOIN categories c ON c.id = f.category_id`

	created, err := scanFunko(r.db.QueryRow(ctx, query,
		f.Name, f.Price, f.Image, f.CategoryID, f.CreatedAt, f.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return nil, fmt.Errorf("%w: категория %s не существует", ErrConflict, f.CategoryID)
		}
		return nil, fmt.Errorf("ошибка создания Funko: %w", err)
	}
	return created, nil
}

func (r *funkoRepo) Update(ctx context.Context, f *model.Funko) (*model.Funko, error) {
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}

	query := `
		WITH f AS (
			UPDATE funkos
			SET name = $2, price = $3, image = $4, category_id = $5, updated_at = $6
			WHERE id = $1
			RETURNING *
		)` + funkoSelect + `
		FROM f JOIN categories c ON c.id = f.category_id`

	updated, err := scanFunko(r.db.QueryRow(ctx, query,
		f.ID, f.Name, f.Price, f.Image, f.CategoryID, f.UpdatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return nil, fmt.Errorf("%w: категория %s не существует", ErrConflict, f.CategoryID)
		}
		return nil, fmt.Errorf("ошибка обновления Funko: %w", err)
	}
	return updated, nil
}

func (r *funkoRepo) Delete(ctx context.Context, id int64) (*model.Funko, error) {
	query := `
		WITH f AS (
			DELETE FROM funkos WHERE id = $1 RETURNING *
		)` + funkoSelect + `
		FROM f JOIN categories c ON c.id = f.category_id`

	deleted, err := scanFunko(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка удаления Funko: %w", err)
	}
	return deleted, nil
}

func (r *funkoRepo) Snapshot(ctx context.Context) ([]model.Funko, error) {
	var result []model.Funko
	err := readOnly(ctx, r.db, func(q DBTX) error {
		rows, err := q.Query(ctx, funkoSelect+`
			FROM funkos f JOIN categories c ON c.id = f.category_id
			ORDER BY f.id`)
		if err != nil {
			return fmt.Errorf("ошибка чтения снимка Funko: %w", err)
		}
		defer rows.Close()

		result = make([]model.Funko, 0)
		for rows.Next() {
			f, err := scanFunko(rows)
			if err != nil {
				return fmt.Errorf("ошибка сканирования Funko: %w", err)
			}
			result = append(result, *f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildFunkoWhere строит WHERE по фильтру; плейсхолдеры нумеруются с $1.
func buildFunkoWhere(q FunkoQuery) (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	if q.Name != nil && *q.Name != "" {
		conditions = append(conditions, fmt.Sprintf(`f.name ILIKE $%d ESCAPE '\'`, argNum))
		args = append(args, containsPattern(*q.Name))
		argNum++
	}
	if q.Category != nil && *q.Category != "" {
		conditions = append(conditions, fmt.Sprintf(`c.name ILIKE $%d ESCAPE '\'`, argNum))
		args = append(args, containsPattern(*q.Category))
		argNum++
	}
	if q.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("f.price <= $%d", argNum))
		args = append(args, *q.MaxPrice)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// funkoOrderBy возвращает выражение ORDER BY. При равных ключах порядок
// определяется id (порядок вставки).
func funkoOrderBy(sortBy string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	switch strings.ToLower(sortBy) {
	case SortByName:
		return "f.name " + dir + ", f.id ASC"
	case SortByPrice:
		return "f.price " + dir + ", f.id ASC"
	case SortByCreatedAt:
		return "f.created_at " + dir + ", f.id ASC"
	case SortByCategory:
		return "c.name " + dir + ", f.id ASC"
	default:
		return "f.id " + dir
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern превращает подстроку в шаблон ILIKE, экранируя спецсимволы.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
