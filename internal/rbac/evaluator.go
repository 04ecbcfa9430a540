package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/metrics"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrPermissionDenied indicates an authenticated user lacks rights for
// the requested operation. Handlers translate it to 403 with the
// stable "Access denied" message.
var ErrPermissionDenied = errors.New("permission denied")

// Decision is the tri-state outcome of a permission check. Callers
// must treat DecisionError exactly like DecisionDenied; Allowed() is
// the only way to proceed.
type Decision int

const (
	DecisionDenied Decision = iota
	DecisionAllowed
	DecisionError
)

// Allowed reports whether the check permits the operation
func (d Decision) Allowed() bool {
	return d == DecisionAllowed
}

// Store supplies role and override data for evaluation. Implementations
// read the tenant database at call time; decisions are never cached
// across requests.
type Store interface {
	// DynamicGrants returns the raw permission strings of the user's
	// dynamic role, or nil when the role (or its category) is inactive.
	DynamicGrants(ctx context.Context, user *models.User) ([]string, error)
	// Overrides returns all overrides recorded for the user and the
	// exact (resource, action) pair, in any order.
	Overrides(ctx context.Context, userID uuid.UUID, resource Resource, action Action) ([]models.PermissionOverride, error)
	// AccessiblePracticeIDs returns practices granted to the user
	// beyond their home practice.
	AccessiblePracticeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// AllPracticeIDs returns every active practice in the tenant.
	AllPracticeIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Evaluator decides whether a user may perform an action on a resource
type Evaluator struct {
	store Store
	now   func() time.Time
}

// NewEvaluator creates an evaluator over the given store
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store, now: time.Now}
}

// Check evaluates (resource, action) for a user. Precedence, highest
// first: super-admin short-circuit, then the most recently created
// active non-expired override for exactly this pair, then role grants
// under the Subsumes table. Any store failure yields DecisionError so
// the check fails closed.
func (e *Evaluator) Check(ctx context.Context, user *models.User, resource Resource, action Action) Decision {
	if user == nil || !user.IsActive {
		return DecisionDenied
	}

	if e.IsSuperAdmin(user) {
		return DecisionAllowed
	}

	requested := Permission{Resource: resource, Action: action}

	overrides, err := e.store.Overrides(ctx, user.ID, resource, action)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Override lookup failed, denying")
		return DecisionError
	}
	if o := newestActive(overrides, e.now()); o != nil {
		if o.Granted {
			return DecisionAllowed
		}
		e.recordDenial(requested)
		return DecisionDenied
	}

	for _, grant := range StaticGrants(user.Role) {
		if Subsumes(grant, requested) {
			return DecisionAllowed
		}
	}

	raw, err := e.store.DynamicGrants(ctx, user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Dynamic role lookup failed, denying")
		return DecisionError
	}
	grants, malformed := ParseAll(raw)
	if len(malformed) > 0 {
		log.Warn().Strs("entries", malformed).Str("user_id", user.ID.String()).Msg("Ignoring malformed permission entries")
	}
	for _, grant := range grants {
		if Subsumes(grant, requested) {
			return DecisionAllowed
		}
	}

	e.recordDenial(requested)
	return DecisionDenied
}

// newestActive picks the authoritative override: the most recently
// created one that is active and not expired. Conflicting overrides
// for the same pair resolve newest-wins.
func newestActive(overrides []models.PermissionOverride, now time.Time) *models.PermissionOverride {
	var best *models.PermissionOverride
	for i := range overrides {
		o := &overrides[i]
		if !o.ActiveAt(now) {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			best = o
		}
	}
	return best
}

func (e *Evaluator) recordDenial(p Permission) {
	metrics.PermissionDenials.WithLabelValues(string(p.Resource), string(p.Action)).Inc()
}

// IsSuperAdmin reports whether the user's role implies all permissions
func (e *Evaluator) IsSuperAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleSuperAdmin
}

// CanSwitchPractices reports whether the user may act across practices
func (e *Evaluator) CanSwitchPractices(ctx context.Context, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if e.IsSuperAdmin(user) {
		return true, nil
	}
	if user.Role != models.RoleAdministrator {
		return false, nil
	}
	ids, err := e.store.AccessiblePracticeIDs(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// AccessiblePractices returns the practices the user may operate in:
// all of them for a super admin, otherwise the home practice plus any
// explicit cross-practice grants.
func (e *Evaluator) AccessiblePractices(ctx context.Context, user *models.User) ([]uuid.UUID, error) {
	if user == nil {
		return nil, nil
	}
	if e.IsSuperAdmin(user) {
		return e.store.AllPracticeIDs(ctx)
	}

	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	if user.PracticeID != nil {
		seen[*user.PracticeID] = true
		out = append(out, *user.PracticeID)
	}
	ids, err := e.store.AccessiblePracticeIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
