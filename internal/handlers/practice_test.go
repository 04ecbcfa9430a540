package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/omnivet/vetpms/internal/tenant"
)

type scopeStore struct {
	access    []uuid.UUID
	practices []uuid.UUID
}

func (s *scopeStore) DynamicGrants(ctx context.Context, user *models.User) ([]string, error) {
	return nil, nil
}

func (s *scopeStore) Overrides(ctx context.Context, userID uuid.UUID, resource rbac.Resource, action rbac.Action) ([]models.PermissionOverride, error) {
	return nil, nil
}

func (s *scopeStore) AccessiblePracticeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.access, nil
}

func (s *scopeStore) AllPracticeIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.practices, nil
}

func scopedRequest(user *models.User, practiceID string) *http.Request {
	target := "http://happytails.vetpms.io/api/v1/invoices"
	if practiceID != "" {
		target += "?practice_id=" + practiceID
	}
	req := httptest.NewRequest("GET", target, nil)
	if user != nil {
		req = req.WithContext(tenant.WithUser(req.Context(), user))
	}
	return req
}

func scopedUser(role models.Role, practiceID *uuid.UUID) *models.User {
	return &models.User{
		ID:         uuid.New(),
		Role:       role,
		PracticeID: practiceID,
		IsActive:   true,
	}
}

func TestPracticeScopeDefaultsToHomePractice(t *testing.T) {
	home := uuid.New()
	user := scopedUser(models.RoleClient, &home)
	evaluator := rbac.NewEvaluator(&scopeStore{})

	got, err := practiceScope(scopedRequest(user, ""), evaluator)
	if err != nil {
		t.Fatalf("practiceScope failed: %v", err)
	}
	if got != home {
		t.Errorf("expected the home practice, got %s", got)
	}
}

func TestPracticeScopeRejectsForeignPractice(t *testing.T) {
	home := uuid.New()
	user := scopedUser(models.RoleClient, &home)
	evaluator := rbac.NewEvaluator(&scopeStore{})

	_, err := practiceScope(scopedRequest(user, uuid.NewString()), evaluator)
	if !errors.Is(err, rbac.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for a foreign practice, got %v", err)
	}
}

func TestPracticeScopeAllowsGrantedPractice(t *testing.T) {
	home := uuid.New()
	other := uuid.New()
	user := scopedUser(models.RoleAdministrator, &home)
	evaluator := rbac.NewEvaluator(&scopeStore{access: []uuid.UUID{other}})

	got, err := practiceScope(scopedRequest(user, other.String()), evaluator)
	if err != nil {
		t.Fatalf("practiceScope failed: %v", err)
	}
	if got != other {
		t.Errorf("expected the granted practice, got %s", got)
	}
}

func TestPracticeScopeSuperAdminReadsAnyPractice(t *testing.T) {
	any := uuid.New()
	user := scopedUser(models.RoleSuperAdmin, nil)
	evaluator := rbac.NewEvaluator(&scopeStore{})

	got, err := practiceScope(scopedRequest(user, any.String()), evaluator)
	if err != nil {
		t.Fatalf("practiceScope failed: %v", err)
	}
	if got != any {
		t.Errorf("expected the requested practice, got %s", got)
	}
}

func TestPracticeScopeRejectsBadInput(t *testing.T) {
	evaluator := rbac.NewEvaluator(&scopeStore{})

	if _, err := practiceScope(scopedRequest(nil, ""), evaluator); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated without a user, got %v", err)
	}

	home := uuid.New()
	user := scopedUser(models.RoleClient, &home)
	var verr *services.ValidationError
	if _, err := practiceScope(scopedRequest(user, "not-a-uuid"), evaluator); !errors.As(err, &verr) {
		t.Errorf("expected a validation error for a malformed id, got %v", err)
	}
}
