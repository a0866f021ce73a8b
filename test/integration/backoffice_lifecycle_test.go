package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/service/address"
	"github.com/vladislavdragonenkov/backoffice/internal/service/catalog"
	"github.com/vladislavdragonenkov/backoffice/internal/service/customer"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
	"github.com/vladislavdragonenkov/backoffice/internal/service/order"
	"github.com/vladislavdragonenkov/backoffice/internal/service/outbox"
	"github.com/vladislavdragonenkov/backoffice/internal/service/report"
	"github.com/vladislavdragonenkov/backoffice/internal/service/ticket"
	"github.com/vladislavdragonenkov/backoffice/internal/storage/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []domain.OutboxMessage
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, event)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.messages))
	for i, msg := range p.messages {
		types[i] = msg.EventType
	}
	return types
}

// BackofficeLifecycleTestSuite проходит полный путь: регистрация клиента,
// заказ, тикеты отмены, отчёт о продажах и доставка событий из outbox.
type BackofficeLifecycleTestSuite struct {
	suite.Suite

	now        time.Time
	users      domain.UserRepository
	outboxRepo interface {
		domain.OutboxRepository
		AllPending() []domain.OutboxMessage
	}

	catalog   *catalog.Service
	customers *customer.Service
	addresses *address.Service
	orders    *order.Service
	tickets   *ticket.Service
	reports   *report.Service
}

func (s *BackofficeLifecycleTestSuite) SetupTest() {
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	entry := log.NewEntry(logger)

	repos := order.Repositories{
		Orders:    memory.NewOrderRepository(),
		Lines:     memory.NewOrderLineRepository(),
		Customers: memory.NewCustomerRepository(),
		Addresses: memory.NewAddressRepository(),
		Catalog:   memory.NewCatalogRepository(),
	}
	outboxRepo := memory.NewOutboxRepository()
	s.outboxRepo = outboxRepo
	s.users = memory.NewUserRepository()
	rec := eventlog.NewRecorder(outboxRepo, memory.NewTimelineRepository(), nil, entry)

	s.addresses = address.New(repos.Addresses, repos.Customers,
		address.WithLogger(entry), address.WithRecorder(rec), address.WithClock(clock))
	s.customers = customer.New(repos.Customers, s.users, s.addresses,
		customer.WithLogger(entry), customer.WithRecorder(rec), customer.WithClock(clock))
	s.catalog = catalog.New(repos.Catalog, catalog.WithLogger(entry), catalog.WithRecorder(rec))
	s.orders = order.New(repos, s.addresses,
		order.WithLogger(entry), order.WithRecorder(rec), order.WithClock(clock))
	s.tickets = ticket.New(memory.NewTicketRepository(), s.orders,
		ticket.WithLogger(entry), ticket.WithRecorder(rec), ticket.WithClock(clock))
	s.reports = report.New(repos.Lines, repos.Catalog, report.WithLogger(entry))
}

func (s *BackofficeLifecycleTestSuite) signup(ctx context.Context) (domain.Customer, domain.Address) {
	user, err := s.users.Create(ctx, domain.User{
		Email:        "ana@example.com",
		PasswordHash: "s3cr3t",
		Authorities:  []domain.Authority{domain.AuthorityOperator},
	})
	s.Require().NoError(err)

	created, err := s.customers.Create(ctx, domain.CustomerSignup{
		UserID: user.ID, Name: "Ana", Document: 12345678901,
		Type: domain.CustomerTypeNaturalPerson, CreditScore: "A",
		Addresses: []domain.Address{{
			Street: "Rua das Flores", HouseNumber: 10, Neighborhood: "Centro",
			ZipCode: 1001000, Country: "BR", Type: domain.AddressTypeHome,
		}},
	})
	s.Require().NoError(err)

	own, err := s.addresses.ListByCustomer(ctx, created.ID, domain.Page{})
	s.Require().NoError(err)
	s.Require().Len(own, 1)
	return created, own[0]
}

func (s *BackofficeLifecycleTestSuite) entry(ctx context.Context, name, price string) domain.CatalogEntry {
	created, err := s.catalog.Create(ctx, domain.CatalogEntry{
		Name: name, UnitPrice: decimal.RequireFromString(price),
		SaleEligible: true, State: domain.CatalogStateActive,
	})
	s.Require().NoError(err)
	return created
}

func (s *BackofficeLifecycleTestSuite) TestOrderToTicketsToReport() {
	ctx := context.Background()
	buyer, home := s.signup(ctx)

	phone := s.entry(ctx, "Phone", "500.00")
	cable := s.entry(ctx, "Cable", "10.00")
	unsold := s.entry(ctx, "Case", "25.00")

	first, err := s.orders.Create(ctx, buyer.ID, home.ID, []domain.LineRequest{
		{EntryID: phone.ID, Quantity: 2, Discount: decimal.RequireFromString("0.1")},
	})
	s.Require().NoError(err)

	// Цена позиции фиксируется при оформлении.
	_, err = s.catalog.Update(ctx, phone.ID, domain.CatalogEntry{
		Name: "Phone", UnitPrice: decimal.RequireFromString("999.00"),
		SaleEligible: true, State: domain.CatalogStateActive,
	})
	s.Require().NoError(err)
	stored, err := s.orders.Get(ctx, first.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Lines, 1)
	s.True(stored.Lines[0].TotalPrice.Equal(decimal.RequireFromString("900")))

	second, err := s.orders.Create(ctx, buyer.ID, home.ID, []domain.LineRequest{
		{EntryID: cable.ID, Quantity: 3},
	})
	s.Require().NoError(err)

	// Тикет в пределах двух часов отменяет заказ сразу.
	s.now = s.now.Add(time.Hour)
	auto, err := s.tickets.Create(ctx, "changed my mind", first.ID, first.ID)
	s.Require().NoError(err)
	s.True(auto.Resolved)
	_, err = s.orders.Get(ctx, first.ID)
	s.Require().ErrorIs(err, domain.ErrNotFound)

	// Позже окна тикет ждёт ручного решения.
	s.now = s.now.Add(2 * time.Hour)
	manual, err := s.tickets.Create(ctx, "arrived broken", second.ID, second.ID)
	s.Require().NoError(err)
	s.False(manual.Resolved)
	_, err = s.orders.Get(ctx, second.ID)
	s.Require().NoError(err)

	unresolved := false
	pending, err := s.tickets.List(ctx, domain.Page{}, &unresolved)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(manual.ID, pending[0].ID)

	resolved, err := s.tickets.Resolve(ctx, manual.ID)
	s.Require().NoError(err)
	s.True(resolved.Resolved)

	info, err := s.orders.Info(ctx)
	s.Require().NoError(err)
	s.Equal(domain.OrdersInfo{Open: 0, Cancelled: 2}, info)

	history, err := s.orders.Timeline(ctx, first.ID)
	s.Require().NoError(err)
	types := make([]string, len(history))
	for i, ev := range history {
		types[i] = ev.Type
	}
	s.Contains(types, domain.TimelineOrderCreated)
	s.Contains(types, domain.TimelineTicketOpened)

	// Отменённые заказы остаются в отчёте о продажах.
	sales, err := s.reports.CatalogSales(ctx)
	s.Require().NoError(err)
	s.Equal([]domain.SalesRow{
		{EntryID: phone.ID, Name: "Phone", Quantity: 2},
		{EntryID: cable.ID, Name: "Cable", Quantity: 3},
		{EntryID: unsold.ID, Name: "Case", Quantity: 0},
	}, sales)
}

func (s *BackofficeLifecycleTestSuite) TestCustomerDeleteAndReactivation() {
	ctx := context.Background()
	buyer, home := s.signup(ctx)

	s.Require().NoError(s.customers.Delete(ctx, buyer.ID))
	_, err := s.customers.Get(ctx, buyer.ID)
	s.Require().ErrorIs(err, domain.ErrNotFound)
	_, err = s.orders.Create(ctx, buyer.ID, home.ID, nil)
	s.Require().Error(err)

	back, err := s.customers.Create(ctx, domain.CustomerSignup{
		UserID: buyer.UserID, Name: "Ana Maria", Document: 12345678901,
		Type: domain.CustomerTypeNaturalPerson, CreditScore: "B",
	})
	s.Require().NoError(err)
	s.Equal(buyer.ID, back.ID)
	s.Equal("Ana Maria", back.Name)
	s.Equal(domain.CustomerStatusActive, back.Status)
	s.Equal("s3cr3t", back.PasswordHash)

	_, err = s.customers.Create(ctx, domain.CustomerSignup{
		UserID: buyer.UserID, Name: "Twin", Document: 1,
		Type: domain.CustomerTypeNaturalPerson, CreditScore: "A",
	})
	var exists *domain.AlreadyExistsError
	s.Require().ErrorAs(err, &exists)
}

func (s *BackofficeLifecycleTestSuite) TestOutboxRelayDeliversRecordedEvents() {
	ctx := context.Background()
	buyer, home := s.signup(ctx)
	phone := s.entry(ctx, "Phone", "500.00")

	placed, err := s.orders.Create(ctx, buyer.ID, home.ID, []domain.LineRequest{{EntryID: phone.ID, Quantity: 1}})
	s.Require().NoError(err)
	_, err = s.tickets.Create(ctx, "mistake", placed.ID, placed.ID)
	s.Require().NoError(err)

	queued := len(s.outboxRepo.AllPending())
	s.Require().NotZero(queued)

	publisher := &recordingPublisher{}
	worker := outbox.NewWorker(s.outboxRepo, publisher,
		outbox.WithBatchSize(queued),
		outbox.WithRetryBaseDelay(time.Millisecond),
	)
	res := worker.ProcessOnce(ctx)
	s.Equal(queued, res.Sent)
	s.Zero(res.Failed)
	s.Empty(s.outboxRepo.AllPending())

	types := publisher.eventTypes()
	s.Contains(types, domain.EventCustomerCreated)
	s.Contains(types, domain.EventOrderCreated)
	s.Contains(types, domain.EventTicketOpened)
	s.Contains(types, domain.EventOrderCanceled)

	s.Equal(outbox.Result{}, worker.ProcessOnce(ctx))
}

func TestBackofficeLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(BackofficeLifecycleTestSuite))
}
