package ticket_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/service/address"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
	"github.com/vladislavdragonenkov/backoffice/internal/service/order"
	"github.com/vladislavdragonenkov/backoffice/internal/service/ticket"
	"github.com/vladislavdragonenkov/backoffice/internal/storage/memory"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	tickets  *ticket.Service
	orders   *order.Service
	timeline domain.TimelineRepository
	clock    *clock
	customer domain.Customer
	address  domain.Address
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}

	repos := order.Repositories{
		Orders:    memory.NewOrderRepository(),
		Lines:     memory.NewOrderLineRepository(),
		Customers: memory.NewCustomerRepository(),
		Addresses: memory.NewAddressRepository(),
		Catalog:   memory.NewCatalogRepository(),
	}
	timeline := memory.NewTimelineRepository()
	rec := eventlog.NewRecorder(memory.NewOutboxRepository(), timeline, nil, nil)

	customer, err := repos.Customers.Create(ctx, domain.Customer{
		Name: "Ana", Document: 1, Status: domain.CustomerStatusActive,
		Type: domain.CustomerTypeNaturalPerson, CreditScore: "A", UserID: 1,
	})
	require.NoError(t, err)
	addr, err := repos.Addresses.Create(ctx, domain.Address{
		Street: "Rua A", HouseNumber: 1, Neighborhood: "Centro", ZipCode: 1,
		Country: "BR", Type: domain.AddressTypeHome, CustomerID: customer.ID,
	})
	require.NoError(t, err)

	orders := order.New(repos, address.New(repos.Addresses, repos.Customers),
		order.WithRecorder(rec), order.WithClock(clk.Now))
	return fixture{
		tickets:  ticket.New(memory.NewTicketRepository(), orders, ticket.WithRecorder(rec), ticket.WithClock(clk.Now)),
		orders:   orders,
		timeline: timeline,
		clock:    clk,
		customer: customer,
		address:  addr,
	}
}

func (f fixture) placeOrder(t *testing.T) domain.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), f.customer.ID, f.address.ID, nil)
	require.NoError(t, err)
	return o
}

func TestCreateAutoResolveWindowBoundary(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		resolved  bool
		cancelled bool
	}{
		{name: "immediately", elapsed: 0, resolved: true, cancelled: true},
		{name: "exactly two hours", elapsed: 2 * time.Hour, resolved: true, cancelled: true},
		{name: "one second late", elapsed: 2*time.Hour + time.Second, resolved: false, cancelled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			o := f.placeOrder(t)

			f.clock.now = o.CreatedAt.Add(tt.elapsed)
			created, err := f.tickets.Create(ctx, "please cancel", o.ID, o.ID)
			require.NoError(t, err)
			require.Equal(t, tt.resolved, created.Resolved)
			require.Equal(t, f.customer.ID, created.CustomerID)

			_, err = f.orders.Get(ctx, o.ID)
			if tt.cancelled {
				require.ErrorIs(t, err, domain.ErrNotFound)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.placeOrder(t)

	_, err := f.tickets.Create(ctx, "   ", o.ID, o.ID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.tickets.Create(ctx, "cancel", 404, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.tickets.Create(ctx, "cancel", o.ID, o.ID+1)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, o.ID+1, nf.ID)
}

func TestResolveCancelsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.placeOrder(t)

	f.clock.now = o.CreatedAt.Add(3 * time.Hour)
	created, err := f.tickets.Create(ctx, "changed my mind", o.ID, o.ID)
	require.NoError(t, err)
	require.False(t, created.Resolved)

	open := false
	pending, err := f.tickets.List(ctx, domain.Page{}, &open)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	resolved, err := f.tickets.Resolve(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, resolved.Resolved)

	_, err = f.orders.Get(ctx, o.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	again, err := f.tickets.Resolve(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, resolved, again)

	history, err := f.orders.Timeline(ctx, o.ID)
	require.NoError(t, err)
	var types []string
	for _, e := range history {
		types = append(types, e.Type)
	}
	require.Equal(t, []string{
		domain.TimelineOrderCreated,
		domain.TimelineTicketOpened,
		domain.TimelineOrderCanceled,
		domain.TimelineTicketResolved,
	}, types)
}

func TestDeleteCancelsOrderAndHidesTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.placeOrder(t)

	f.clock.now = o.CreatedAt.Add(5 * time.Hour)
	created, err := f.tickets.Create(ctx, "cancel", o.ID, o.ID)
	require.NoError(t, err)

	require.NoError(t, f.tickets.Delete(ctx, created.ID))

	_, err = f.tickets.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.orders.Get(ctx, o.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	byCustomer, err := f.tickets.ListByCustomer(ctx, f.customer.ID, domain.Page{})
	require.NoError(t, err)
	require.Empty(t, byCustomer)

	require.ErrorIs(t, f.tickets.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestCreateAllowsOneLiveTicketPerOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.placeOrder(t)

	f.clock.now = o.CreatedAt.Add(5 * time.Hour)
	first, err := f.tickets.Create(ctx, "changed my mind", o.ID, o.ID)
	require.NoError(t, err)

	_, err = f.tickets.Create(ctx, "really, cancel it", o.ID, o.ID)
	var exists *domain.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	require.Equal(t, o.ID, exists.OrderID)
	require.EqualError(t, err, fmt.Sprintf("Ticket already exists for order %d", o.ID))

	open := false
	pending, err := f.tickets.List(ctx, domain.Page{}, &open)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, first.ID, pending[0].ID)

	_, err = f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
}
