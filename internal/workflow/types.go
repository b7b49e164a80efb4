// Package workflow - клиент внешнего сервиса запуска workflow (QStash / Upstash Workflow),
// через который планируются напоминания о продлении подписок.
package workflow

// ReminderBody - тело запроса, которое получит эндпоинт напоминаний.
type ReminderBody struct {
	SubscriptionID string `json:"subscriptionId"`
}

// TriggerRequest описывает запуск workflow: куда доставить тело, с какими заголовками
// и сколько раз повторять доставку. Retries всегда 0, повторов на стороне сервиса нет.
type TriggerRequest struct {
	URL     string            `json:"url"`
	Body    ReminderBody      `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
	Retries int               `json:"retries"`
}

type triggerResponse struct {
	WorkflowRunID string `json:"workflowRunId"`
	MessageID     string `json:"messageId"`
}
