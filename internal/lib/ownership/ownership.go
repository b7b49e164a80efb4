// Package ownership решает, может ли принципал изменять ресурс.
// Единственное основание - совпадение владельца ресурса с принципалом; ролей и обхода нет.
package ownership

import (
	"fmt"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
)

// Reason - причина отказа.
type Reason string

const (
	// ReasonNone - доступ разрешён.
	ReasonNone Reason = ""
	// ReasonNotOwner - принципал не является владельцем ресурса.
	ReasonNotOwner Reason = "not_owner"
	// ReasonResourceAbsent - у ресурса нет владельца, то есть ресурс не загружен.
	ReasonResourceAbsent Reason = "resource_absent"
)

// Decision - результат проверки владения.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Authorize сравнивает владельца ресурса с принципалом.
// Вызывающий обязан сначала проверить существование ресурса.
func Authorize(resourceOwnerID, principalID string) Decision {
	switch {
	case resourceOwnerID == "":
		return Decision{Reason: ReasonResourceAbsent}
	case resourceOwnerID != principalID:
		return Decision{Reason: ReasonNotOwner}
	default:
		return Decision{Allowed: true}
	}
}

// Err возвращает nil при разрешении, иначе ошибку, совместимую с apperr.ErrForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", apperr.ErrForbidden, d.Reason)
}
