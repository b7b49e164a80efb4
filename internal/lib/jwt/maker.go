package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Maker выпускает токены для аутентифицированных пользователей.
type Maker struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewMaker создаёт Maker на основе секретного ключа и TTL.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// GenerateToken создаёт JWT токен для пользователя, подписывая его секретным ключом.
func (m *Maker) GenerateToken(userID string) (string, error) {
	const op = "jwt.GenerateToken"
	if m.secretKey == "" {
		return "", fmt.Errorf("%s: %w", op, ErrServerMisconfiguration)
	}
	now := time.Now()
	claims := CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}
