package model

import "time"

// User — локальная учётная запись для входа в UI и выпуска токенов API.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	// Role — Admin или User (см. пакет rbac)
	Role      string
	CreatedAt time.Time
}
