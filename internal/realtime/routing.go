package realtime

import (
	"log/slog"

	"github.com/drumline-app/drumline/internal/domain"
	"github.com/drumline-app/drumline/internal/metrics"
)

// Audience is a named category of intended recipients for a notification.
type Audience string

const (
	// AudienceSchoolWide reaches every connection of the school.
	AudienceSchoolWide Audience = "school-wide"
	// AudienceStaffOnly reaches teachers and admins of the school.
	AudienceStaffOnly Audience = "staff-only"
	// AudienceStudentsOnly reaches students of the school.
	AudienceStudentsOnly Audience = "students-only"
)

// RoutingTable is the static event type → audience mapping. It is built once
// at startup from the policy file (or the defaults) and read-only afterwards.
type RoutingTable struct {
	entries map[string]Audience
}

// NewRoutingTable builds a table from explicit entries.
func NewRoutingTable(entries map[string]Audience) *RoutingTable {
	copied := make(map[string]Audience, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &RoutingTable{entries: copied}
}

// DefaultRoutingEntries returns the built-in routing decisions used when the
// policy file does not override them.
func DefaultRoutingEntries() map[string]Audience {
	return map[string]Audience{
		"lesson.create":     AudienceSchoolWide,
		"lesson.update":     AudienceSchoolWide,
		"lesson.delete":     AudienceSchoolWide,
		"message.create":    AudienceSchoolWide,
		"message.update":    AudienceSchoolWide,
		"message.delete":    AudienceSchoolWide,
		"student.create":    AudienceStaffOnly,
		"student.update":    AudienceStaffOnly,
		"student.delete":    AudienceStaffOnly,
		"attendance.create": AudienceStaffOnly,
		"attendance.update": AudienceStaffOnly,
		"attendance.delete": AudienceStaffOnly,
		"invoice.create":    AudienceStaffOnly,
		"invoice.update":    AudienceStaffOnly,
		"invoice.delete":    AudienceStaffOnly,
		"practice.create":   AudienceStudentsOnly,
		"practice.update":   AudienceStudentsOnly,
		"practice.delete":   AudienceStudentsOnly,
	}
}

// Resolve maps an event type to its audience. Event types absent from the
// table fall back to staff-only, the narrowest audience, with a warning:
// failing toward under-delivery beats dropping the notification or exposing
// it school-wide.
func (t *RoutingTable) Resolve(eventType string) Audience {
	if audience, ok := t.entries[eventType]; ok {
		return audience
	}
	slog.Warn("Event type missing from routing table, defaulting to staff-only",
		"event_type", eventType)
	metrics.UnroutedEventsTotal.WithLabelValues(eventType).Inc()
	return AudienceStaffOnly
}

// roomsForAudience resolves an audience class into concrete rooms for one
// school, using the room naming scheme.
func roomsForAudience(audience Audience, schoolID int64) []Room {
	switch audience {
	case AudienceSchoolWide:
		return []Room{SchoolRoom{SchoolID: schoolID}}
	case AudienceStudentsOnly:
		return []Room{SchoolRoleRoom{SchoolID: schoolID, Role: domain.RoleStudent}}
	default: // staff-only, also the fallback for unknown audiences
		return []Room{
			SchoolRoleRoom{SchoolID: schoolID, Role: domain.RoleTeacher},
			SchoolRoleRoom{SchoolID: schoolID, Role: domain.RoleAdmin},
		}
	}
}
