package rbac

import (
	"fmt"
	"strings"
)

// Resource is an enumerated domain noun guarding a group of operations
type Resource string

const (
	ResourceAppointments   Resource = "appointments"
	ResourceMedicalRecords Resource = "medical_records"
	ResourceBilling        Resource = "billing"
	ResourceInventory      Resource = "inventory"
	ResourceReferrals      Resource = "referrals"
	ResourceBoarding       Resource = "boarding"
	ResourceCustomFields   Resource = "custom_fields"
	ResourcePatients       Resource = "patients"
	ResourceUsers          Resource = "users"
	ResourceRoles          Resource = "roles"
	ResourcePractices      Resource = "practices"
	ResourceReports        Resource = "reports"

	// ResourceAll is the wildcard resource.
	ResourceAll Resource = "*"
)

// Action is an enumerated verb
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// ActionManage subsumes every action on its resource.
	ActionManage Action = "manage"
)

var knownResources = map[Resource]bool{
	ResourceAppointments:   true,
	ResourceMedicalRecords: true,
	ResourceBilling:        true,
	ResourceInventory:      true,
	ResourceReferrals:      true,
	ResourceBoarding:       true,
	ResourceCustomFields:   true,
	ResourcePatients:       true,
	ResourceUsers:          true,
	ResourceRoles:          true,
	ResourcePractices:      true,
	ResourceReports:        true,
	ResourceAll:            true,
}

var knownActions = map[Action]bool{
	ActionCreate: true,
	ActionRead:   true,
	ActionUpdate: true,
	ActionDelete: true,
	ActionManage: true,
}

// Permission is a validated (resource, action) pair
type Permission struct {
	Resource Resource
	Action   Action
}

// String renders the canonical "resource:action" form
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// Parse validates a "resource:action" string into a Permission.
// Free-form strings from stored JSON blobs must pass through here
// before they participate in evaluation.
func Parse(s string) (Permission, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), ":", 2)
	if len(parts) != 2 {
		return Permission{}, fmt.Errorf("malformed permission %q", s)
	}
	res, act := Resource(parts[0]), Action(parts[1])
	if !knownResources[res] {
		return Permission{}, fmt.Errorf("unknown resource %q", parts[0])
	}
	if !knownActions[act] {
		return Permission{}, fmt.Errorf("unknown action %q", parts[1])
	}
	return Permission{Resource: res, Action: act}, nil
}

// ParseAll validates a permission list, dropping malformed entries.
// Malformed entries are reported so callers can log them; they never
// grant anything.
func ParseAll(raw []string) (perms []Permission, malformed []string) {
	for _, s := range raw {
		p, err := Parse(s)
		if err != nil {
			malformed = append(malformed, s)
			continue
		}
		perms = append(perms, p)
	}
	return perms, malformed
}

// Subsumes reports whether a grant satisfies a requested permission
// under the canonical subsumption table:
//
//	(r, a)      satisfies (r, a)
//	(r, manage) satisfies (r, *) for any action
//	(*, a)      satisfies (*, a) for any resource
//	(*, manage) satisfies everything
//
// No other implicit subsumption exists.
func Subsumes(grant, requested Permission) bool {
	resourceOK := grant.Resource == ResourceAll || grant.Resource == requested.Resource
	if !resourceOK {
		return false
	}
	return grant.Action == ActionManage || grant.Action == requested.Action
}
