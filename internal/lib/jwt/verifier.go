package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerScheme = "bearer"

// Verifier проверяет bearer-токены. Не хранит состояния и безопасен для конкурентного использования.
type Verifier struct {
	secretKey []byte
	parser    *jwt.Parser
}

// NewVerifier создаёт Verifier. Пустой секрет допустим: каждая проверка
// тогда вернёт ErrServerMisconfiguration.
func NewVerifier(secretKey string) *Verifier {
	return &Verifier{
		secretKey: []byte(secretKey),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify разбирает значение заголовка Authorization и возвращает идентификатор пользователя.
func (v *Verifier) Verify(rawHeader string) (string, error) {
	const op = "jwt.Verify"

	tokenStr, ok := bearerToken(rawHeader)
	if !ok {
		return "", ErrMissingCredential
	}
	if len(v.secretKey) == 0 {
		return "", ErrServerMisconfiguration
	}

	claims := &CustomClaims{}
	_, err := v.parser.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return v.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, classify(err), err)
	}

	subject := claims.SubjectID()
	if subject == "" {
		return "", ErrMalformedToken
	}
	return subject, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return ErrInvalidSignature
	}
}
