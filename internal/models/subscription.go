package models

import "time"

// Status - состояние подписки. Начальное состояние active, cancelled и expired конечные.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal сообщает, что из состояния нет переходов, кроме удаления записи.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// Frequency - периодичность списания.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// TrialUnit - единица длительности пробного периода.
type TrialUnit string

const (
	TrialUnitDays   TrialUnit = "days"
	TrialUnitWeeks  TrialUnit = "weeks"
	TrialUnitMonths TrialUnit = "months"
)

const (
	// DefaultCurrency валюта по умолчанию.
	DefaultCurrency = "USD"
	// DefaultTrialDuration длительность пробного периода по умолчанию.
	DefaultTrialDuration = 30
	// DateLayout формат дат начала подписки и окончания пробного периода.
	DateLayout = "2006-01-02"
)

// TrialInfo описывает пробный период подписки.
// CancellationDate заполняется только при отмене пробной подписки через Cancel.
type TrialInfo struct {
	TrialDuration        int        `json:"trialDuration" bson:"trial_duration" validate:"gte=1"`
	TrialDurationUnit    TrialUnit  `json:"trialDurationUnit" bson:"trial_duration_unit" validate:"required,oneof=days weeks months"`
	TrialEndDate         string     `json:"trialEndDate" bson:"trial_end_date" validate:"omitempty,date"`
	PostTrialPrice       float64    `json:"postTrialPrice" bson:"post_trial_price" validate:"gte=0"`
	AutoConvertToRegular bool       `json:"autoConvertToRegular" bson:"auto_convert_to_regular"`
	ReminderSent         bool       `json:"reminderSent" bson:"reminder_sent"`
	CancellationDate     *time.Time `json:"cancellationDate" bson:"cancellation_date"`
}

// Subscription - основная модель подписки пользователя.
// Теги validate являются таблицей ограничений сущности и проверяются одним проходом перед записью.
type Subscription struct {
	ID            string    `json:"id" bson:"_id"`
	User          string    `json:"user" bson:"user" validate:"required"`
	Name          string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Price         float64   `json:"price" bson:"price" validate:"gte=0"`
	Currency      string    `json:"currency" bson:"currency" validate:"required"`
	Frequency     Frequency `json:"frequency" bson:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	Category      string    `json:"category" bson:"category" validate:"required"`
	WebsiteURL    string    `json:"websiteUrl,omitempty" bson:"website_url" validate:"omitempty,url"`
	StartDate     string    `json:"startDate" bson:"start_date" validate:"required,date"`
	PaymentMethod string    `json:"paymentMethod" bson:"payment_method" validate:"required"`
	Status        Status    `json:"status" bson:"status" validate:"required,oneof=active cancelled expired"`
	IsTrial       bool      `json:"isTrial" bson:"is_trial"`
	TrialInfo     TrialInfo `json:"trialInfo" bson:"trial_info"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// CreateRequest используется для приёма данных новой подписки.
// Поля user и status намеренно отсутствуют: их выставляет сервер.
type CreateRequest struct {
	Name          string            `json:"name"`
	Price         *float64          `json:"price"`
	Currency      string            `json:"currency"`
	Frequency     string            `json:"frequency"`
	Category      string            `json:"category"`
	WebsiteURL    string            `json:"websiteUrl"`
	StartDate     string            `json:"startDate"`
	PaymentMethod string            `json:"paymentMethod"`
	IsTrial       bool              `json:"isTrial"`
	TrialInfo     *TrialInfoRequest `json:"trialInfo"`
}

// TrialInfoRequest - изменяемые клиентом поля пробного периода.
// nil означает, что поле в запросе отсутствует.
type TrialInfoRequest struct {
	TrialDuration        *int     `json:"trialDuration"`
	TrialDurationUnit    *string  `json:"trialDurationUnit"`
	TrialEndDate         *string  `json:"trialEndDate"`
	PostTrialPrice       *float64 `json:"postTrialPrice"`
	AutoConvertToRegular *bool    `json:"autoConvertToRegular"`
}

// EditRequest - частичное обновление подписки. Применяются только присутствующие поля.
type EditRequest struct {
	Name          *string           `json:"name"`
	Price         *float64          `json:"price"`
	Currency      *string           `json:"currency"`
	Frequency     *string           `json:"frequency"`
	Category      *string           `json:"category"`
	WebsiteURL    *string           `json:"websiteUrl"`
	StartDate     *string           `json:"startDate"`
	PaymentMethod *string           `json:"paymentMethod"`
	IsTrial       *bool             `json:"isTrial"`
	TrialInfo     *TrialInfoRequest `json:"trialInfo"`
}

// CreateResult - результат создания подписки.
// WorkflowRunID равен nil, если напоминание не было запланировано.
type CreateResult struct {
	Subscription  *Subscription `json:"subscription"`
	WorkflowRunID *string       `json:"workflowRunId"`
}
