package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/repository"
)

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("email", "is required")
	if err.Error() != "validation failed: email: is required" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	err.Add("name", "too long")
	if len(err.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(err.Fields))
	}
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Errorf("expected failure on field %q, got %v", field, verr.Fields)
	}
}

func TestAppointmentServiceRejectsInvalidWindow(t *testing.T) {
	svc := NewAppointmentService(repository.NewAppointmentRepository(), repository.NewAuditRepository(), noopNotifier{})

	start := time.Now()
	_, err := svc.Create(context.Background(), CreateAppointmentInput{
		PracticeID:     uuid.New(),
		PatientID:      uuid.New(),
		VeterinarianID: uuid.New(),
		StartsAt:       start,
		EndsAt:         start.Add(-time.Hour),
	})
	assertValidationError(t, err, "starts_at")
}

func TestAppointmentServiceRejectsMissingIDs(t *testing.T) {
	svc := NewAppointmentService(repository.NewAppointmentRepository(), repository.NewAuditRepository(), noopNotifier{})

	_, err := svc.Create(context.Background(), CreateAppointmentInput{
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(time.Hour),
	})
	assertValidationError(t, err, "practice_id")
	assertValidationError(t, err, "patient_id")
	assertValidationError(t, err, "veterinarian_id")
}

func TestBillingServiceRejectsEmptyInvoice(t *testing.T) {
	svc := NewBillingService(repository.NewBillingRepository(), repository.NewAuditRepository(), noopNotifier{})

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		PracticeID: uuid.New(),
		ClientID:   uuid.New(),
	})
	assertValidationError(t, err, "items")
}

func TestBillingServiceRejectsBadLineItems(t *testing.T) {
	svc := NewBillingService(repository.NewBillingRepository(), repository.NewAuditRepository(), noopNotifier{})

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		PracticeID: uuid.New(),
		ClientID:   uuid.New(),
		Items: []InvoiceItemInput{
			{Description: "Exam", Quantity: 0, UnitPrice: 5000},
		},
	})
	assertValidationError(t, err, "items")
}

func TestBillingServiceRejectsNonPositivePayment(t *testing.T) {
	svc := NewBillingService(repository.NewBillingRepository(), repository.NewAuditRepository(), noopNotifier{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: uuid.New(),
		Amount:    0,
		Method:    "card",
	})
	assertValidationError(t, err, "amount")
}

func TestInventoryServiceRequiresReason(t *testing.T) {
	svc := NewInventoryService(repository.NewInventoryRepository(), repository.NewAuditRepository())

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ItemID: uuid.New(),
		Delta:  -3,
	})
	assertValidationError(t, err, "reason")
}

func TestInventoryServiceRejectsZeroDelta(t *testing.T) {
	svc := NewInventoryService(repository.NewInventoryRepository(), repository.NewAuditRepository())

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ItemID: uuid.New(),
		Delta:  0,
		Reason: "cycle count",
	})
	assertValidationError(t, err, "delta")
}

func TestMedicalServiceRejectsEmptyNote(t *testing.T) {
	svc := NewMedicalService(repository.NewMedicalRepository(), repository.NewAuditRepository())

	_, err := svc.CreateNote(context.Background(), CreateNoteInput{
		PatientID: uuid.New(),
	})
	assertValidationError(t, err, "note")
}

type noopNotifier struct{}

func (noopNotifier) Broadcast(tenantID uuid.UUID, eventType string, payload interface{}) {}
