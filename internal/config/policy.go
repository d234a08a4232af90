package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drumline-app/drumline/internal/domain"
	"github.com/drumline-app/drumline/internal/guard"
	"github.com/drumline-app/drumline/internal/realtime"
)

// Policy is the externally supplied authorization surface: the role-rank
// table, per-resource-kind access options, and the event routing table.
type Policy struct {
	RoleRanks domain.RoleRanks                      `yaml:"role_ranks"`
	Resources map[domain.ResourceKind]guard.Options `yaml:"resources"`
	Routing   map[string]realtime.Audience          `yaml:"routing"`
}

// DefaultPolicy returns the compiled-in policy.
func DefaultPolicy() *Policy {
	return &Policy{
		RoleRanks: domain.DefaultRoleRanks(),
		Resources: map[domain.ResourceKind]guard.Options{
			domain.KindLesson:     {AllowAdmin: true, AllowTeacher: true, AllowStudent: true, MatchCreator: true},
			domain.KindStudent:    {AllowAdmin: true, AllowTeacher: true},
			domain.KindMessage:    {AllowAdmin: true, AllowTeacher: true, AllowStudent: true, MatchCreator: true},
			domain.KindAttendance: {AllowAdmin: true, AllowTeacher: true, MatchCreator: true},
			domain.KindInvoice:    {AllowAdmin: true},
		},
		Routing: realtime.DefaultRoutingEntries(),
	}
}

// LoadPolicy reads the policy file when path is non-empty, merging file
// entries over the defaults so partial files only override what they name.
func LoadPolicy(path string) (*Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file Policy
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for role, rank := range file.RoleRanks {
		if _, err := domain.ParseRole(string(role)); err != nil {
			return nil, fmt.Errorf("policy file: %w", err)
		}
		policy.RoleRanks[role] = rank
	}
	for kind, opts := range file.Resources {
		policy.Resources[kind] = opts
	}
	for eventType, audience := range file.Routing {
		switch audience {
		case realtime.AudienceSchoolWide, realtime.AudienceStaffOnly, realtime.AudienceStudentsOnly:
			policy.Routing[eventType] = audience
		default:
			return nil, fmt.Errorf("policy file: unknown audience %q for %s", audience, eventType)
		}
	}

	return policy, nil
}
