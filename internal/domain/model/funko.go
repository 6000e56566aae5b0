package model

import "time"

// DefaultImage — изображение Funko, если файл не загружен.
const DefaultImage = "/uploads/default.png"

// Funko — позиция каталога. Хранится в таблице funkos.
type Funko struct {
	// ID — идентификатор, назначается хранилищем
	ID int64
	// Name — название (2-100 символов)
	Name string
	// Price — цена (0.01-9999.99)
	Price float64
	// Image — публичный путь к изображению
	Image string
	// CategoryID — UUID категории, обязательная ссылка
	CategoryID string
	// Category — связанная категория, заполняется репозиторием при чтении
	Category  *Category
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryName возвращает имя связанной категории или пустую строку.
func (f *Funko) CategoryName() string {
	if f.Category == nil {
		return ""
	}
	return f.Category.Name
}
