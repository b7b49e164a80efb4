// Package validation проверяет доменные сущности по таблице ограничений,
// заданной тегами validate, за один проход перед записью в хранилище.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validator оборачивает validator.Validate с зарегистрированными правилами сервиса.
type Validator struct {
	validate *validator.Validate
}

// New создаёт Validator с правилами date и emailpattern и именами полей из json-тегов.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// ошибки регистрации возможны только при пустом теге
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("emailpattern", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct проверяет структуру и возвращает *apperr.ValidationError при нарушениях.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	return apperr.NewValidation(Messages(errs)...)
}

// Messages формирует человеко-читаемые сообщения для каждого нарушения.
func Messages(errs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		field := fieldPath(err.Namespace())
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters long", field, err.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters long", field, err.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must be %s or greater", field, err.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", field, err.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid URL", field))
		case "date":
			msgs = append(msgs, fmt.Sprintf("field %s must be a date in format %s", field, models.DateLayout))
		case "emailpattern":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email", field))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return msgs
}

// fieldPath отбрасывает имя корневой структуры: Subscription.trialInfo.trialDuration -> trialInfo.trialDuration.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
