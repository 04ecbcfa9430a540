package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
)

type fakeStore struct {
	grants      []string
	grantsErr   error
	overrides   []models.PermissionOverride
	overrideErr error
	access      []uuid.UUID
	accessErr   error
	practices   []uuid.UUID
}

func (s *fakeStore) DynamicGrants(ctx context.Context, user *models.User) ([]string, error) {
	return s.grants, s.grantsErr
}

func (s *fakeStore) Overrides(ctx context.Context, userID uuid.UUID, resource Resource, action Action) ([]models.PermissionOverride, error) {
	return s.overrides, s.overrideErr
}

func (s *fakeStore) AccessiblePracticeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.access, s.accessErr
}

func (s *fakeStore) AllPracticeIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.practices, nil
}

func testUser(role models.Role) *models.User {
	practiceID := uuid.New()
	return &models.User{
		ID:         uuid.New(),
		Email:      "vet@happytails.example",
		Role:       role,
		PracticeID: &practiceID,
		IsActive:   true,
	}
}

func newTestEvaluator(store Store, at time.Time) *Evaluator {
	e := NewEvaluator(store)
	e.now = func() time.Time { return at }
	return e
}

func TestCheckNilUserDenied(t *testing.T) {
	e := NewEvaluator(&fakeStore{})
	if d := e.Check(context.Background(), nil, ResourceBilling, ActionRead); d.Allowed() {
		t.Error("nil user must be denied")
	}
}

func TestCheckInactiveUserDenied(t *testing.T) {
	u := testUser(models.RoleSuperAdmin)
	u.IsActive = false
	e := NewEvaluator(&fakeStore{})
	if d := e.Check(context.Background(), u, ResourceBilling, ActionRead); d.Allowed() {
		t.Error("inactive user must be denied even as super admin")
	}
}

func TestCheckSuperAdminShortCircuits(t *testing.T) {
	// Store errors must not matter: the super admin never consults it.
	store := &fakeStore{overrideErr: errors.New("db down"), grantsErr: errors.New("db down")}
	e := NewEvaluator(store)
	u := testUser(models.RoleSuperAdmin)

	if d := e.Check(context.Background(), u, ResourceRoles, ActionManage); !d.Allowed() {
		t.Error("super admin must be allowed everything")
	}
}

func TestCheckStaticRoleGrants(t *testing.T) {
	e := NewEvaluator(&fakeStore{})
	cases := []struct {
		role     models.Role
		resource Resource
		action   Action
		want     bool
	}{
		{models.RoleVeterinarian, ResourceMedicalRecords, ActionUpdate, true},
		{models.RoleVeterinarian, ResourceBilling, ActionRead, true},
		{models.RoleVeterinarian, ResourceBilling, ActionCreate, false},
		{models.RoleReceptionist, ResourceAppointments, ActionDelete, true},
		{models.RoleReceptionist, ResourceMedicalRecords, ActionRead, false},
		{models.RoleAccountant, ResourceBilling, ActionDelete, true},
		{models.RoleAccountant, ResourceAppointments, ActionRead, false},
		{models.RoleClient, ResourceAppointments, ActionCreate, true},
		{models.RoleClient, ResourceBilling, ActionRead, false},
	}

	for _, tc := range cases {
		u := testUser(tc.role)
		got := e.Check(context.Background(), u, tc.resource, tc.action).Allowed()
		if got != tc.want {
			t.Errorf("%s %s:%s = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestCheckDynamicRoleGrants(t *testing.T) {
	store := &fakeStore{grants: []string{"boarding:manage", "not-a-permission"}}
	e := NewEvaluator(store)
	u := testUser(models.RoleClient)

	if !e.Check(context.Background(), u, ResourceBoarding, ActionUpdate).Allowed() {
		t.Error("dynamic grant boarding:manage should allow boarding:update")
	}
	if e.Check(context.Background(), u, ResourceReports, ActionRead).Allowed() {
		t.Error("malformed entries must never grant anything")
	}
}

// categoryStore serves dynamic grants through the same model helper
// the repository uses, so category toggles change outcomes exactly as
// they would against the tenant database.
type categoryStore struct {
	fakeStore
	role     models.DynamicRole
	category models.RoleCategory
}

func (s *categoryStore) DynamicGrants(ctx context.Context, user *models.User) ([]string, error) {
	role := s.role
	cat := s.category
	role.Category = &cat
	return role.EffectiveGrants(), nil
}

func TestCheckInactiveDynamicRoleGrantsNothing(t *testing.T) {
	store := &categoryStore{
		role:     models.DynamicRole{Permissions: models.StringList{"boarding:read"}, IsActive: false},
		category: models.RoleCategory{IsActive: true},
	}
	e := NewEvaluator(store)
	u := testUser(models.RoleClient)

	if e.Check(context.Background(), u, ResourceBoarding, ActionRead).Allowed() {
		t.Error("an inactive dynamic role must grant nothing")
	}
}

func TestCheckCategoryToggleIsIdempotent(t *testing.T) {
	store := &categoryStore{
		role:     models.DynamicRole{Permissions: models.StringList{"boarding:read"}, IsActive: true},
		category: models.RoleCategory{IsActive: true},
	}
	e := NewEvaluator(store)
	u := testUser(models.RoleClient)

	check := func() bool {
		return e.Check(context.Background(), u, ResourceBoarding, ActionRead).Allowed()
	}

	if !check() {
		t.Fatal("active category should let the role grant")
	}

	// Setting the same value twice must yield the same outcome as once.
	for _, active := range []bool{false, false, true, true} {
		store.category.IsActive = active
		if got := check(); got != active {
			t.Errorf("after setting category active=%v, check = %v", active, got)
		}
	}
}

func TestCheckOverrideGrants(t *testing.T) {
	now := time.Now()
	u := testUser(models.RoleClient)
	store := &fakeStore{overrides: []models.PermissionOverride{{
		UserID:    u.ID,
		Resource:  string(ResourceBilling),
		Action:    string(ActionRead),
		Granted:   true,
		Status:    models.OverrideStatusActive,
		CreatedAt: now.Add(-time.Hour),
	}}}
	e := newTestEvaluator(store, now)

	if !e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("active granting override should allow")
	}
}

func TestCheckOverrideDeniesDespiteRoleGrant(t *testing.T) {
	now := time.Now()
	u := testUser(models.RoleAccountant) // billing:manage via static role
	store := &fakeStore{overrides: []models.PermissionOverride{{
		UserID:    u.ID,
		Resource:  string(ResourceBilling),
		Action:    string(ActionRead),
		Granted:   false,
		Status:    models.OverrideStatusActive,
		CreatedAt: now.Add(-time.Hour),
	}}}
	e := newTestEvaluator(store, now)

	if e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("denying override must beat the role grant")
	}
}

func TestCheckExpiredOverrideIgnored(t *testing.T) {
	now := time.Now()
	expiry := now.Add(-time.Minute)
	u := testUser(models.RoleClient)
	store := &fakeStore{overrides: []models.PermissionOverride{{
		UserID:    u.ID,
		Resource:  string(ResourceBilling),
		Action:    string(ActionRead),
		Granted:   true,
		ExpiresAt: &expiry,
		Status:    models.OverrideStatusActive,
		CreatedAt: now.Add(-time.Hour),
	}}}
	e := newTestEvaluator(store, now)

	if e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("expired override must not grant")
	}
}

func TestCheckOverrideExpiresBetweenChecks(t *testing.T) {
	start := time.Now()
	expiry := start.Add(30 * time.Minute)
	u := testUser(models.RoleClient)
	store := &fakeStore{overrides: []models.PermissionOverride{{
		UserID:    u.ID,
		Resource:  string(ResourceBilling),
		Action:    string(ActionRead),
		Granted:   true,
		ExpiresAt: &expiry,
		Status:    models.OverrideStatusActive,
		CreatedAt: start,
	}}}

	e := newTestEvaluator(store, start.Add(10*time.Minute))
	if !e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("override should grant before expiry")
	}

	e = newTestEvaluator(store, start.Add(time.Hour))
	if e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("override must stop granting after expiry")
	}
}

func TestCheckRevokedOverrideIgnored(t *testing.T) {
	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	u := testUser(models.RoleClient)
	store := &fakeStore{overrides: []models.PermissionOverride{{
		UserID:    u.ID,
		Resource:  string(ResourceBilling),
		Action:    string(ActionRead),
		Granted:   true,
		Status:    models.OverrideStatusRevoked,
		RevokedAt: &revokedAt,
		CreatedAt: now.Add(-time.Hour),
	}}}
	e := newTestEvaluator(store, now)

	if e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("revoked override must not grant")
	}
}

func TestCheckNewestOverrideWins(t *testing.T) {
	now := time.Now()
	u := testUser(models.RoleClient)
	store := &fakeStore{overrides: []models.PermissionOverride{
		{
			UserID:    u.ID,
			Resource:  string(ResourceBilling),
			Action:    string(ActionRead),
			Granted:   true,
			Status:    models.OverrideStatusActive,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			UserID:    u.ID,
			Resource:  string(ResourceBilling),
			Action:    string(ActionRead),
			Granted:   false,
			Status:    models.OverrideStatusActive,
			CreatedAt: now.Add(-time.Hour),
		},
	}}
	e := newTestEvaluator(store, now)

	if e.Check(context.Background(), u, ResourceBilling, ActionRead).Allowed() {
		t.Error("the newer denying override must win over the older grant")
	}
}

func TestCheckFailsClosedOnOverrideError(t *testing.T) {
	store := &fakeStore{overrideErr: errors.New("db down")}
	e := NewEvaluator(store)
	u := testUser(models.RoleAccountant)

	d := e.Check(context.Background(), u, ResourceBilling, ActionRead)
	if d != DecisionError {
		t.Errorf("expected DecisionError, got %v", d)
	}
	if d.Allowed() {
		t.Error("a store failure must never allow")
	}
}

func TestCheckFailsClosedOnDynamicGrantError(t *testing.T) {
	store := &fakeStore{grantsErr: errors.New("db down")}
	e := NewEvaluator(store)
	u := testUser(models.RoleClient)

	d := e.Check(context.Background(), u, ResourceBoarding, ActionRead)
	if d != DecisionError {
		t.Errorf("expected DecisionError, got %v", d)
	}
}

func TestCanSwitchPractices(t *testing.T) {
	other := uuid.New()

	super := testUser(models.RoleSuperAdmin)
	e := NewEvaluator(&fakeStore{})
	if ok, _ := e.CanSwitchPractices(context.Background(), super); !ok {
		t.Error("super admin can always switch")
	}

	admin := testUser(models.RoleAdministrator)
	e = NewEvaluator(&fakeStore{access: []uuid.UUID{other}})
	if ok, _ := e.CanSwitchPractices(context.Background(), admin); !ok {
		t.Error("administrator with grants can switch")
	}

	e = NewEvaluator(&fakeStore{})
	if ok, _ := e.CanSwitchPractices(context.Background(), admin); ok {
		t.Error("administrator without grants cannot switch")
	}

	vet := testUser(models.RoleVeterinarian)
	e = NewEvaluator(&fakeStore{access: []uuid.UUID{other}})
	if ok, _ := e.CanSwitchPractices(context.Background(), vet); ok {
		t.Error("veterinarians never switch practices")
	}
}

func TestAccessiblePractices(t *testing.T) {
	all := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	super := testUser(models.RoleSuperAdmin)
	e := NewEvaluator(&fakeStore{practices: all})
	got, err := e.AccessiblePractices(context.Background(), super)
	if err != nil {
		t.Fatalf("AccessiblePractices failed: %v", err)
	}
	if len(got) != len(all) {
		t.Errorf("super admin sees %d practices, want %d", len(got), len(all))
	}

	admin := testUser(models.RoleAdministrator)
	extra := uuid.New()
	e = NewEvaluator(&fakeStore{access: []uuid.UUID{extra, *admin.PracticeID}})
	got, err = e.AccessiblePractices(context.Background(), admin)
	if err != nil {
		t.Fatalf("AccessiblePractices failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected home practice plus one grant deduped, got %d", len(got))
	}
	if got[0] != *admin.PracticeID {
		t.Errorf("home practice should come first")
	}
}
