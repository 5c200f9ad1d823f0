package constants

// NATS Subjects
const (
	// Published for every accepted position sample
	SubjectLocationUpdate = "location.update"

	// Consumed from the delivery service; terminal statuses invalidate the
	// driver->order association cache
	SubjectDeliveryStatus = "delivery.status"
)

// NATS queue groups
const (
	QueueGroupTracking = "tracking-service"
)
