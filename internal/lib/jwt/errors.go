package jwt

import "errors"

// Ошибки проверки учётных данных. Каждая различима через errors.Is,
// чтобы HTTP-слой мог вернуть разную диагностику.
var (
	ErrMissingCredential      = errors.New("jwt: missing bearer credential")
	ErrInvalidSignature       = errors.New("jwt: invalid token")
	ErrExpired                = errors.New("jwt: token expired")
	ErrNotYetValid            = errors.New("jwt: token not active yet")
	ErrMalformedToken         = errors.New("jwt: token has no subject claim")
	ErrServerMisconfiguration = errors.New("jwt: signing secret is not configured")
)
