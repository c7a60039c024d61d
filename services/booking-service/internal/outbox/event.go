package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (production-style: event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the booking service.
const (
	EventPlanBooked     = "booking.plan.booked.v1"
	EventContractSigned = "booking.contract.signed.v1"
	EventCancelled      = "booking.cancelled.v1"
)
