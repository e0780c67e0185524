package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "grameengo/pkg/domain"
)

// Payload is the JSON document relayed to the event stream.
type Payload struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
	Action      string `json:"action"`
	ActorID     string `json:"actor_id,omitempty"`
	ActorRole   string `json:"actor_role,omitempty"`
	SubjectType string `json:"subject_type,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
	MFIID       string `json:"mfi_id,omitempty"`
	FromStatus  string `json:"from_status,omitempty"`
	ToStatus    string `json:"to_status,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
	Client      string `json:"client,omitempty"`
}

// Encode renders event as its outbox payload. The category is always
// derived from the action.
func Encode(event Event) ([]byte, error) {
	p := Payload{
		ID:          event.ID.String(),
		Category:    string(AuditEvent(event.Action).Category()),
		Timestamp:   event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:      event.Action,
		ActorRole:   event.ActorRole,
		SubjectType: event.SubjectType,
		SubjectID:   event.SubjectID,
		MFIID:       event.MFIID,
		FromStatus:  event.FromStatus,
		ToStatus:    event.ToStatus,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		ClientIP:    event.ClientIP,
		Client:      event.Client,
	}
	if !event.ActorID.IsNil() {
		p.ActorID = event.ActorID.String()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Event, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	e := Event{
		Category:    EventCategory(p.Category),
		Timestamp:   ts,
		Action:      p.Action,
		ActorRole:   p.ActorRole,
		SubjectType: p.SubjectType,
		SubjectID:   p.SubjectID,
		MFIID:       p.MFIID,
		FromStatus:  p.FromStatus,
		ToStatus:    p.ToStatus,
		Reason:      p.Reason,
		RequestID:   p.RequestID,
		ClientIP:    p.ClientIP,
		Client:      p.Client,
	}
	if e.ID, err = uuid.Parse(p.ID); err != nil {
		return Event{}, fmt.Errorf("parse audit id: %w", err)
	}
	if p.ActorID != "" {
		actor, err := uuid.Parse(p.ActorID)
		if err != nil {
			return Event{}, fmt.Errorf("parse audit actor: %w", err)
		}
		e.ActorID = id.UserID(actor)
	}
	return e, nil
}
