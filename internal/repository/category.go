package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/funkoworld/internal/domain/model"
)

// CategoryRepository — интерфейс CRUD для таблицы categories.
type CategoryRepository interface {
	// GetByName ищет категорию по имени без учёта регистра.
	GetByName(ctx context.Context, name string) (*model.Category, error)
	// GetByID возвращает категорию по UUID или nil.
	GetByID(ctx context.Context, id string) (*model.Category, error)
	// GetAll возвращает все категории, упорядоченные по имени.
	GetAll(ctx context.Context) ([]*model.Category, error)
	// Create сохраняет категорию; пустой ID заменяется новым UUID.
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	// Update меняет имя категории; nil, если категории нет.
	Update(ctx context.Context, id, name string) (*model.Category, error)
	// Delete удаляет категорию и возвращает её; nil, если категории нет.
	Delete(ctx context.Context, id string) (*model.Category, error)
	// Snapshot возвращает согласованный снимок всех категорий
	// для массового чтения. Изменения снимка не сохраняются.
	Snapshot(ctx context.Context) ([]model.Category, error)
}

type categoryRepo struct {
	db DBTX
}

// NewCategoryRepository создаёт репозиторий категорий.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `id, name, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	c := &model.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// oneCategory переводит pgx.ErrNoRows и некорректный UUID в (nil, nil).
func oneCategory(row pgx.Row, op string) (*model.Category, error) {
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка %s категории: %w", op, err)
	}
	return c, nil
}

func (r *categoryRepo) GetByName(ctx context.Context, name string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE lower(name) = lower($1)`
	return oneCategory(r.db.QueryRow(ctx, query, name), "поиска")
}

func (r *categoryRepo) GetByID(ctx context.Context, id string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return oneCategory(r.db.QueryRow(ctx, query, id), "получения")
}

func (r *categoryRepo) GetAll(ctx context.Context) ([]*model.Category, error) {
	return listCategories(ctx, r.db)
}

func listCategories(ctx context.Context, db DBTX) ([]*model.Category, error) {
	rows, err := db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка категорий: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.db.QueryRow(ctx, query, c.ID, c.Name, now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: категория %q уже существует", ErrConflict, c.Name)
		}
		return nil, fmt.Errorf("ошибка создания категории: %w", err)
	}
	return created, nil
}

func (r *categoryRepo) Update(ctx context.Context, id, name string) (*model.Category, error) {
	query := `
		UPDATE categories SET name = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRow(ctx, query, id, name, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: категория %q уже существует", ErrConflict, name)
		}
		return nil, fmt.Errorf("ошибка обновления категории: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Delete(ctx context.Context, id string) (*model.Category, error) {
	query := `DELETE FROM categories WHERE id = $1 RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: в категории есть Funko", ErrInUse)
		}
		return nil, fmt.Errorf("ошибка удаления категории: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Snapshot(ctx context.Context) ([]model.Category, error) {
	var result []model.Category
	err := readOnly(ctx, r.db, func(q DBTX) error {
		list, err := listCategories(ctx, q)
		if err != nil {
			return err
		}
		result = make([]model.Category, 0, len(list))
		for _, c := range list {
			result = append(result, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
