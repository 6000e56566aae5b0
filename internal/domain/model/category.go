package model

import "time"

// Category — категория каталога. Хранится в таблице categories.
// Имя уникально без учёта регистра.
type Category struct {
	// ID — UUID категории (генерируется при создании, если пуст)
	ID string
	// Name — имя категории (2-100 символов)
	Name string
	// CreatedAt — время создания (UTC)
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения (UTC)
	UpdatedAt time.Time
}
