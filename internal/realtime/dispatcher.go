package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/drumline-app/drumline/internal/identity"
	"github.com/drumline-app/drumline/internal/logging"
	"github.com/drumline-app/drumline/internal/metrics"
)

// NoSchoolHint is passed as the school id hint when the caller has no
// explicit school and wants the ambient operation context to decide.
const NoSchoolHint int64 = 0

// Dispatcher validates and emits event envelopes to resolved rooms. It is
// the only producer of envelopes; everything it emits carries the school id
// of the authenticated operation, never a school id found inside a payload.
type Dispatcher struct {
	hub   *Hub
	table *RoutingTable
	clock clockwork.Clock
}

// NewDispatcher wires the dispatcher to the hub and routing table.
func NewDispatcher(hub *Hub, table *RoutingTable, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{hub: hub, table: table, clock: clock}
}

// Dispatch fans out one state-change notification and returns the recipient
// count. The school id resolves from schoolIDHint when positive, otherwise
// from the security context carried by ctx. When neither resolves, the
// broadcast is aborted, logged as a security-relevant event, and 0 is
// returned; the mutation that triggered the broadcast is unaffected.
// Resolving from a payload field is deliberately not supported.
func (d *Dispatcher) Dispatch(ctx context.Context, entity Entity, action Action, entityID string, payload any, schoolIDHint int64) int {
	sc := identity.FromContext(ctx)

	schoolID := schoolIDHint
	if schoolID <= 0 && sc != nil {
		schoolID = sc.SchoolID()
	}
	if schoolID <= 0 {
		slog.Warn("Broadcast aborted: no school id resolved",
			"entity", string(entity), "action", string(action))
		metrics.BroadcastsAbortedTotal.WithLabelValues("missing_school").Inc()
		return 0
	}

	// A hint the caller is not entitled to is rejected before emission.
	if sc != nil && !sc.CanAccessSchool(schoolID) {
		logging.WithSchool(schoolID).Warn("Broadcast aborted: school id outside caller scope",
			"entity", string(entity), "action", string(action),
			"user_id", sc.UserID().String())
		metrics.BroadcastsAbortedTotal.WithLabelValues("school_mismatch").Inc()
		return 0
	}

	var actorID uuid.UUID
	if sc != nil {
		actorID = sc.UserID()
	}

	envelope := Envelope{
		Type:   EventType(entity, action),
		Entity: entity,
		Action: action,
		Data:   payload,
		Meta: Meta{
			SchoolID:  schoolID,
			ActorID:   actorID,
			Timestamp: d.clock.Now().UTC(),
			EntityID:  entityID,
		},
	}

	return d.emit(&envelope)
}

// relayMessage is the only shape accepted from clients. Any school or actor
// fields a client may put in its payload are ignored; the connection's own
// authenticated identity is substituted before validation.
type relayMessage struct {
	Entity   Entity          `json:"entity"`
	Action   Action          `json:"action"`
	EntityID string          `json:"entityId"`
	Data     json.RawMessage `json:"data"`
}

type errorNotice struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Relay handles a client-originated event from a registered connection.
// Structurally invalid envelopes are rejected with an explicit error notice
// to the sender rather than silently dropped. Returns the recipient count.
func (d *Dispatcher) Relay(profile ConnectionProfile, raw []byte) int {
	var msg relayMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.rejectRelay(profile, "malformed event")
		return 0
	}

	if profile.SchoolID <= 0 {
		d.rejectRelay(profile, "connection has no school")
		return 0
	}

	envelope := Envelope{
		Type:   EventType(msg.Entity, msg.Action),
		Entity: msg.Entity,
		Action: msg.Action,
		Data:   msg.Data,
		Meta: Meta{
			SchoolID:  profile.SchoolID,
			ActorID:   profile.UserID,
			Timestamp: d.clock.Now().UTC(),
			EntityID:  msg.EntityID,
		},
	}

	if err := envelope.Validate(); err != nil {
		d.rejectRelay(profile, err.Error())
		return 0
	}

	return d.emit(&envelope)
}

func (d *Dispatcher) rejectRelay(profile ConnectionProfile, reason string) {
	logging.WithConnection(profile.ID).Info("Rejected relay event",
		"user_id", profile.UserID.String(),
		"reason", reason)
	metrics.RelayRejectionsTotal.Inc()

	notice, err := json.Marshal(errorNotice{Type: "error", Error: reason})
	if err != nil {
		return
	}
	d.hub.SendTo(profile.ID, notice)
}

func (d *Dispatcher) emit(envelope *Envelope) int {
	if err := envelope.Validate(); err != nil {
		slog.Error("Broadcast aborted: invalid envelope",
			"event_type", envelope.Type, "error", err)
		metrics.BroadcastsAbortedTotal.WithLabelValues("invalid_envelope").Inc()
		return 0
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal envelope", "event_type", envelope.Type, "error", err)
		metrics.BroadcastsAbortedTotal.WithLabelValues("marshal").Inc()
		return 0
	}

	audience := d.table.Resolve(envelope.Type)
	rooms := roomsForAudience(audience, envelope.Meta.SchoolID)

	count := d.hub.Emit(Topics(rooms), data)
	if count < 0 {
		return 0
	}

	metrics.BroadcastsTotal.WithLabelValues(string(envelope.Entity), string(envelope.Action)).Inc()
	metrics.BroadcastRecipients.Observe(float64(count))
	return count
}
