package models

import "time"

// Subscription хранит состояние оплаты подписки пользователя.
// ContentID: идентификатор checkout-сессии у платёжного провайдера,
// по нему перепроверяется статус оплаты.
type Subscription struct {
	ID           int64     `json:"id"`
	ContentID    string    `json:"content_id,omitempty"`
	ProductID    string    `json:"product_id,omitempty"`
	PriceID      string    `json:"price_id,omitempty"`
	PaymentDate  time.Time `json:"payment_date"`
	PaymentURL   string    `json:"payment_url,omitempty"`
	Price        int64     `json:"price"` // В минимальных единицах валюты
	IsSubscribed bool      `json:"is_subscribed"`
	UserID       *int64    `json:"user_id,omitempty"`
}

// Checkout: результат создания платежа у провайдера.
type Checkout struct {
	ProductID  string
	PriceID    string
	SessionID  string
	PaymentURL string
}

// PaymentStatus: статус оплаты, который сообщает провайдер.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentCheck: сообщение для очереди проверки незавершённых оплат.
type PaymentCheck struct {
	SubscriptionID int64  `json:"subscription_id"`
	SessionID      string `json:"session_id"`
}
