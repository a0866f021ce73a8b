package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: NotFound(EntityOrder, 7), want: ErrNotFound},
		{name: "no such id", err: NoSuchID(EntityUser, 3), want: ErrNoSuchID},
		{name: "composite no such id", err: NoSuchIDs(EntityCustomer, EntityAddress, 1, 2), want: ErrNoSuchID},
		{name: "null id", err: NullID(EntityCustomer), want: ErrNullID},
		{name: "ownership", err: OwnershipMismatch("nope"), want: ErrOwnershipMismatch},
		{name: "already exists", err: &AlreadyExistsError{Entity: EntityCustomer, UserID: 1}, want: ErrAlreadyExists},
		{name: "not for sale", err: NotForSale(11), want: ErrNotForSale},
		{name: "validation", err: &ValidationError{Fields: []string{"Name"}}, want: ErrInvalidArgument},
		{name: "code", err: &CodeError{Enum: "customer type", Code: 9}, want: ErrInvalidCode},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", NotFound(EntityTicket, 1)), want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("expected %v to match %v", tt.err, tt.want)
			}
		})
	}
}

func TestNoSuchIDsMessageNamesBothEntities(t *testing.T) {
	err := NoSuchIDs(EntityCustomer, EntityAddress, 3, 9)

	var typed *NoSuchIDError
	if !errors.As(err, &typed) {
		t.Fatalf("expected NoSuchIDError, got %T", err)
	}
	if len(typed.IDs) != 2 || typed.IDs[0] != 3 || typed.IDs[1] != 9 {
		t.Fatalf("unexpected ids: %v", typed.IDs)
	}
	if got := err.Error(); got != "no value for id of Customer/Address: 3/9" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestUnexpectedKeepsDomainKinds(t *testing.T) {
	domainErrs := []error{
		NotFound(EntityOrder, 1),
		NoSuchIDs(EntityCustomer, EntityAddress, 1, 2),
		NullID(EntityUser),
		OwnershipMismatch("x"),
		NotForSale(5),
		fmt.Errorf("wrapped: %w", ErrNotFound),
	}
	for _, err := range domainErrs {
		if got := Unexpected(err); got != err {
			t.Fatalf("expected %v to pass through unchanged, got %v", err, got)
		}
	}

	infra := errors.New("connection reset")
	wrapped := Unexpected(infra)
	if !errors.Is(wrapped, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", wrapped)
	}
	if !errors.Is(wrapped, infra) {
		t.Fatal("expected underlying error to stay reachable")
	}
	if wrapped.Error() != "unexpected error: connection reset" {
		t.Fatalf("unexpected message: %s", wrapped.Error())
	}

	if Unexpected(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: NotFound(EntityOrder, 1), want: "not_found"},
		{err: NoSuchID(EntityUser, 1), want: "no_such_id"},
		{err: NullID(EntityUser), want: "null_id"},
		{err: OwnershipMismatch("x"), want: "ownership_mismatch"},
		{err: &AlreadyExistsError{}, want: "already_exists"},
		{err: NotForSale(1), want: "not_for_sale"},
		{err: &ValidationError{}, want: "invalid_argument"},
		{err: &CodeError{}, want: "invalid_argument"},
		{err: errors.New("boom"), want: "unexpected"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
