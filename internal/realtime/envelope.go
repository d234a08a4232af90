package realtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity names the kind of record an event is about.
type Entity string

const (
	EntityLesson     Entity = "lesson"
	EntityStudent    Entity = "student"
	EntityMessage    Entity = "message"
	EntityAttendance Entity = "attendance"
	EntityInvoice    Entity = "invoice"
	EntityPractice   Entity = "practice"
)

// Action names the state change that happened to the entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var knownEntities = map[Entity]struct{}{
	EntityLesson: {}, EntityStudent: {}, EntityMessage: {},
	EntityAttendance: {}, EntityInvoice: {}, EntityPractice: {},
}

var knownActions = map[Action]struct{}{
	ActionCreate: {}, ActionUpdate: {}, ActionDelete: {},
}

// EventType builds the canonical "entity.action" event type string.
func EventType(entity Entity, action Action) string {
	return string(entity) + "." + string(action)
}

// Meta carries the trusted envelope metadata. SchoolID always equals the
// authenticated operation's school; it is never copied out of a payload
// field, and consumers may rely on it and Timestamp being present.
type Meta struct {
	SchoolID  int64     `json:"schoolId"`
	ActorID   uuid.UUID `json:"actorId"`
	Timestamp time.Time `json:"timestamp"`
	EntityID  string    `json:"entityId,omitempty"`
}

// Envelope is the canonical notification shape delivered to clients. It is
// immutable once built; the dispatcher constructs and validates it before
// emission and nothing downstream modifies it.
type Envelope struct {
	Type   string `json:"type"`
	Entity Entity `json:"entity"`
	Action Action `json:"action"`
	Data   any    `json:"data"`
	Meta   Meta   `json:"meta"`
}

// Validate checks the structural invariants of an envelope: known entity and
// action, a positive numeric school id, and a timestamp.
func (e *Envelope) Validate() error {
	if _, ok := knownEntities[e.Entity]; !ok {
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	if _, ok := knownActions[e.Action]; !ok {
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.Type != EventType(e.Entity, e.Action) {
		return fmt.Errorf("type %q does not match %s.%s", e.Type, e.Entity, e.Action)
	}
	if e.Meta.SchoolID <= 0 {
		return fmt.Errorf("envelope has no school id")
	}
	if e.Meta.Timestamp.IsZero() {
		return fmt.Errorf("envelope has no timestamp")
	}
	return nil
}
