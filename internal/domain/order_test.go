package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

func TestNewOrderLineFreezesExtendedPrice(t *testing.T) {
	entry := domain.CatalogEntry{ID: 4, Name: "Router", UnitPrice: decimal.NewFromInt(50000), SaleEligible: true}
	req := domain.LineRequest{EntryID: 4, Quantity: 5, Discount: decimal.RequireFromString("0.1")}

	line := domain.NewOrderLine(10, entry, req)

	if !line.TotalPrice.Equal(decimal.NewFromInt(225000)) {
		t.Fatalf("expected 225000, got %s", line.TotalPrice)
	}
	if line.Key() != (domain.LineKey{OrderID: 10, EntryID: 4}) {
		t.Fatalf("unexpected key: %+v", line.Key())
	}

	entry.UnitPrice = decimal.NewFromInt(1)
	if !line.TotalPrice.Equal(decimal.NewFromInt(225000)) {
		t.Fatal("line price must not follow catalog price changes")
	}
}

func TestLineRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  domain.LineRequest
		ok   bool
	}{
		{name: "valid", req: domain.LineRequest{EntryID: 1, Quantity: 1, Discount: decimal.Zero}, ok: true},
		{name: "max discount below one", req: domain.LineRequest{EntryID: 1, Quantity: 1, Discount: decimal.RequireFromString("0.99")}, ok: true},
		{name: "zero quantity", req: domain.LineRequest{EntryID: 1, Quantity: 0}},
		{name: "negative discount", req: domain.LineRequest{EntryID: 1, Quantity: 1, Discount: decimal.NewFromInt(-1)}},
		{name: "full discount", req: domain.LineRequest{EntryID: 1, Quantity: 1, Discount: decimal.NewFromInt(1)}},
		{name: "missing entry", req: domain.LineRequest{Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestOrderStateTransitions(t *testing.T) {
	order := domain.Order{ID: 1, CreatedAt: time.Now()}
	if order.State() != domain.OrderStateOpen {
		t.Fatalf("expected open, got %s", order.State())
	}
	if !order.MarkDeleted() {
		t.Fatal("expected first cancel to change state")
	}
	if order.State() != domain.OrderStateCancelled || order.Visible() {
		t.Fatal("expected cancelled and invisible order")
	}
	if order.MarkDeleted() {
		t.Fatal("expected repeated cancel to be a no-op")
	}
}

func TestWithinAutoResolveWindow(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if !domain.WithinAutoResolveWindow(created, created.Add(2*time.Hour)) {
		t.Fatal("exactly two hours must still be inside the window")
	}
	if domain.WithinAutoResolveWindow(created, created.Add(2*time.Hour+time.Second)) {
		t.Fatal("two hours and one second must be outside the window")
	}
	if !domain.WithinAutoResolveWindow(created, created) {
		t.Fatal("zero elapsed must be inside the window")
	}
}

func TestTicketTransitions(t *testing.T) {
	ticket := domain.Ticket{ID: 1, Message: "please cancel"}
	if ticket.State() != domain.TicketStateOpen {
		t.Fatal("expected open ticket")
	}
	if !ticket.Resolve() || ticket.Resolve() {
		t.Fatal("expected resolve to be one-way")
	}

	deleted := domain.Ticket{ID: 2}
	deleted.MarkDeleted()
	if !deleted.Deleted || !deleted.Resolved {
		t.Fatalf("expected deleted ticket to be resolved: %+v", deleted)
	}
}
