package subscription

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// newSubscription собирает подписку из запроса, подставляет значения по умолчанию и проверяет ограничения.
func (s *Service) newSubscription(principal models.Principal, req models.CreateRequest) (*models.Subscription, error) {
	var msgs []string
	var price float64
	if req.Price == nil {
		msgs = append(msgs, "field price is a required field")
	} else {
		price = *req.Price
	}

	sub := &models.Subscription{
		ID:            uuid.NewString(),
		User:          principal.ID,
		Name:          strings.TrimSpace(req.Name),
		Price:         price,
		Currency:      orDefault(strings.TrimSpace(req.Currency), models.DefaultCurrency),
		Frequency:     models.Frequency(orDefault(strings.TrimSpace(req.Frequency), string(models.FrequencyMonthly))),
		Category:      strings.TrimSpace(req.Category),
		WebsiteURL:    strings.TrimSpace(req.WebsiteURL),
		StartDate:     strings.TrimSpace(req.StartDate),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        models.StatusActive,
		IsTrial:       req.IsTrial,
		TrialInfo: models.TrialInfo{
			TrialDuration:        models.DefaultTrialDuration,
			TrialDurationUnit:    models.TrialUnitDays,
			AutoConvertToRegular: true,
		},
	}
	applyTrial(&sub.TrialInfo, req.TrialInfo)
	deriveTrialEnd(sub)

	err := s.validate.Struct(sub)
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		msgs = append(msgs, verr.Messages...)
	case err != nil:
		return nil, err
	}
	if len(msgs) > 0 {
		return nil, apperr.NewValidation(msgs...)
	}
	return sub, nil
}

// applyEdit переносит в подписку присутствующие поля запроса.
// Владелец, статус и служебные поля пробного периода не меняются.
func applyEdit(sub *models.Subscription, req models.EditRequest) {
	if req.Name != nil {
		sub.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		sub.Price = *req.Price
	}
	if req.Currency != nil {
		sub.Currency = strings.TrimSpace(*req.Currency)
	}
	if req.Frequency != nil {
		sub.Frequency = models.Frequency(strings.TrimSpace(*req.Frequency))
	}
	if req.Category != nil {
		sub.Category = strings.TrimSpace(*req.Category)
	}
	if req.WebsiteURL != nil {
		sub.WebsiteURL = strings.TrimSpace(*req.WebsiteURL)
	}
	if req.StartDate != nil {
		sub.StartDate = strings.TrimSpace(*req.StartDate)
	}
	if req.PaymentMethod != nil {
		sub.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
	}
	if req.IsTrial != nil {
		sub.IsTrial = *req.IsTrial
	}
	if trialPeriodChanged(req) {
		sub.TrialInfo.TrialEndDate = ""
	}
	applyTrial(&sub.TrialInfo, req.TrialInfo)
	deriveTrialEnd(sub)
}

// trialPeriodChanged сообщает, что запрос меняет начало или длительность пробного периода
// без явной даты окончания. Тогда прежняя вычисленная дата устарела.
func trialPeriodChanged(req models.EditRequest) bool {
	ti := req.TrialInfo
	if ti != nil && ti.TrialEndDate != nil {
		return false
	}
	return req.StartDate != nil || (ti != nil && (ti.TrialDuration != nil || ti.TrialDurationUnit != nil))
}

func applyTrial(ti *models.TrialInfo, req *models.TrialInfoRequest) {
	if req == nil {
		return
	}
	if req.TrialDuration != nil {
		ti.TrialDuration = *req.TrialDuration
	}
	if req.TrialDurationUnit != nil {
		ti.TrialDurationUnit = models.TrialUnit(strings.TrimSpace(*req.TrialDurationUnit))
	}
	if req.TrialEndDate != nil {
		ti.TrialEndDate = strings.TrimSpace(*req.TrialEndDate)
	}
	if req.PostTrialPrice != nil {
		ti.PostTrialPrice = *req.PostTrialPrice
	}
	if req.AutoConvertToRegular != nil {
		ti.AutoConvertToRegular = *req.AutoConvertToRegular
	}
}

// deriveTrialEnd вычисляет дату окончания пробного периода от даты начала, если она не задана.
// При некорректных входных данных дата остаётся пустой, ошибку сообщит валидация.
func deriveTrialEnd(sub *models.Subscription) {
	ti := &sub.TrialInfo
	if !sub.IsTrial || ti.TrialEndDate != "" || ti.TrialDuration < 1 {
		return
	}
	start, err := time.Parse(models.DateLayout, sub.StartDate)
	if err != nil {
		return
	}
	var end time.Time
	switch ti.TrialDurationUnit {
	case models.TrialUnitDays:
		end = start.AddDate(0, 0, ti.TrialDuration)
	case models.TrialUnitWeeks:
		end = start.AddDate(0, 0, 7*ti.TrialDuration)
	case models.TrialUnitMonths:
		end = start.AddDate(0, ti.TrialDuration, 0)
	default:
		return
	}
	ti.TrialEndDate = end.Format(models.DateLayout)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
