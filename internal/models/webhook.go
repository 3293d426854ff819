package models

import "time"

// Ресурсы и действия вебхука платёжного провайдера.
const (
	ResourceSubscription = "subscription"
	ResourceSale         = "sale"

	ActionCreated   = "created"
	ActionCancelled = "cancelled"
	ActionEnded     = "ended"
	ActionFailed    = "failed"
	ActionRenewed   = "renewed"
)

// WebhookEvent разобранная доставка вебхука. Нигде не сохраняется.
type WebhookEvent struct {
	SellerID         string
	ProductID        string
	ProductPermalink string
	SubscriptionID   string
	PurchaserID      string
	Email            string // поле email
	PurchaserEmail   string // поле purchaser_email
	SaleID           string
	SaleTimestamp    string
	Resource         string
	Action           string
	FullName         string
}

// BuyerEmail возвращает адрес покупателя: email, а если его нет, purchaser_email.
func (e WebhookEvent) BuyerEmail() string {
	if e.Email != "" {
		return e.Email
	}
	return e.PurchaserEmail
}

// AlternateEmail возвращает второй адрес, если он отличается от основного.
func (e WebhookEvent) AlternateEmail() string {
	if e.Email != "" && e.PurchaserEmail != e.Email {
		return e.PurchaserEmail
	}
	return ""
}

// ExternalID возвращает идентификатор подписки у провайдера, а для разовой продажи id продажи.
func (e WebhookEvent) ExternalID() string {
	if e.SubscriptionID != "" {
		return e.SubscriptionID
	}
	return e.SaleID
}

// WebhookLogEntry запись отладочного лога входящих вебхуков.
type WebhookLogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
}
