package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestOverlapViolationDetection(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			"exclusion violation on the overlap constraint",
			&pgconn.PgError{Code: "23P01", ConstraintName: overlapConstraint},
			true,
		},
		{
			"wrapped exclusion violation",
			fmt.Errorf("create: %w", &pgconn.PgError{Code: "23P01", ConstraintName: overlapConstraint}),
			true,
		},
		{
			"exclusion violation on another constraint",
			&pgconn.PgError{Code: "23P01", ConstraintName: "other_guard"},
			false,
		},
		{
			"unique violation",
			&pgconn.PgError{Code: "23505", ConstraintName: overlapConstraint},
			false,
		},
		{
			"plain error",
			errors.New("connection reset"),
			false,
		},
	}

	for _, tc := range cases {
		if got := isOverlapViolation(tc.err); got != tc.want {
			t.Errorf("%s: isOverlapViolation = %v, want %v", tc.name, got, tc.want)
		}
	}
}
