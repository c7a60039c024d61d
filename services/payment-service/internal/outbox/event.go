package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (production-style: event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the payment service.
const (
	EventDepositPaid        = "payment.deposit.paid.v1"
	EventInstallmentCharged = "payment.installment.charged.v1"
	EventInstallmentFailed  = "payment.installment.failed.v1"
	EventScheduleCancelled  = "payment.schedule.cancelled.v1"
)
