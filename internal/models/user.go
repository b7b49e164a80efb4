// Package models содержит доменные структуры сервиса: пользователя (принципала),
// подписку с пробным периодом и DTO для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Principal - аутентифицированный пользователь в рамках одного запроса.
// Передаётся по значению, поэтому обработчики не могут изменить его для остальной цепочки.
type Principal struct {
	ID    string
	Name  string
	Email string
}

// Principal возвращает проекцию пользователя, используемую при авторизации.
func (u *User) Principal() Principal {
	return Principal{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// SignUpRequest используется для приёма данных регистрации.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=6,max=50"`
	Email    string `json:"email" validate:"required,max=254,emailpattern"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInRequest используется для приёма данных входа.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult возвращается после успешной регистрации или входа.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
