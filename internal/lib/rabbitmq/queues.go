package rabbitmq

const (
	// PaymentsExchange: exchange для сообщений о платежах.
	PaymentsExchange = "payments"
	// PaymentCheckRoutingKey: ключ маршрутизации для проверки оплаты.
	PaymentCheckRoutingKey = "check"
	// PaymentCheckQueue: очередь, которую читает reconciler.
	PaymentCheckQueue = "payments.check"
)

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetPaymentQueues возвращает очереди exchange payments.
func GetPaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: PaymentCheckQueue, RoutingKey: PaymentCheckRoutingKey},
	}
}
