package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "grameengo/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers lending decisions and catalog changes that a
	// regulator may ask about. Written fail-closed, in the same transaction
	// as the change they describe.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers denied access and throttling.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Action    string

	ActorID   id.UserID
	ActorRole string

	// SubjectType and SubjectID name the record acted on, e.g.
	// ("application", <uuid>). SubjectID is the Kafka partition key.
	SubjectType string
	SubjectID   string
	MFIID       string

	FromStatus string
	ToStatus   string
	Reason     string

	RequestID string
	ClientIP  string
	Client    string
}

type AuditEvent string

const (
	// Application lifecycle
	EventApplicationSubmitted    AuditEvent = "application_submitted"
	EventApplicationTransitioned AuditEvent = "application_transitioned"

	// Catalog
	EventMFICreated AuditEvent = "mfi_created"

	// Notifications
	EventNotificationSent AuditEvent = "notification_sent"
	EventNotificationRead AuditEvent = "notification_read"

	// Access control
	EventAuthorizationDenied AuditEvent = "authorization_denied"
	EventRateLimitExceeded   AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationSubmitted:    CategoryCompliance,
	EventApplicationTransitioned: CategoryCompliance,
	EventMFICreated:              CategoryCompliance,

	EventAuthorizationDenied: CategorySecurity,
	EventRateLimitExceeded:   CategorySecurity,

	EventNotificationSent: CategoryOperations,
	EventNotificationRead: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error)
}

// OutboxEntry is one appended event awaiting relay to the event stream.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Outbox is the relay side of an outbox-backed Store. Claim hands up to
// limit unpublished entries, oldest first, to publish; they are marked
// published only when publish returns nil. Entries claimed by one caller are
// invisible to concurrent callers until the claim ends.
type Outbox interface {
	Claim(ctx context.Context, limit int, publish func(context.Context, []OutboxEntry) error) (int, error)
}
