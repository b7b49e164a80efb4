// Package jwt реализует выпуск и проверку JWT токенов, подписанных секретом сервера (HS256).
//
// Maker выпускает токены при входе пользователя, Verifier извлекает из заголовка
// Authorization идентификатор пользователя и классифицирует ошибки проверки.
package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims описывает данные, хранящиеся в JWT.
type CustomClaims struct {
	UserID               string `json:"userId"` // Идентификатор пользователя
	jwt.RegisteredClaims        // Стандартные claims (sub, exp, nbf, iat)
}

// SubjectID возвращает идентификатор пользователя: userId, при его отсутствии sub.
func (c *CustomClaims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
