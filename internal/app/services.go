package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/address"
	"github.com/vladislavdragonenkov/backoffice/internal/service/catalog"
	"github.com/vladislavdragonenkov/backoffice/internal/service/customer"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
	"github.com/vladislavdragonenkov/backoffice/internal/service/order"
	"github.com/vladislavdragonenkov/backoffice/internal/service/report"
	"github.com/vladislavdragonenkov/backoffice/internal/service/ticket"
)

// Services: граф доменных сервисов поверх одного набора хранилищ.
type Services struct {
	Catalog   *catalog.Service
	Addresses *address.Service
	Customers *customer.Service
	Orders    *order.Service
	Tickets   *ticket.Service
	Reports   *report.Service
	Recorder  *eventlog.Recorder
}

// NewServices связывает сервисы: общие метрики, recorder и логгер с полем layer.
func NewServices(repos Repositories, cfg Config, m *metrics.BackofficeMetrics, logger *log.Entry) *Services {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	recorder := eventlog.NewRecorder(repos.Outbox, repos.Timeline, m, logger.WithField("layer", "eventlog"))

	catalogOpts := []catalog.Option{
		catalog.WithLogger(logger.WithField("layer", "catalog")),
		catalog.WithMetrics(m),
		catalog.WithRecorder(recorder),
	}
	addressOpts := []address.Option{
		address.WithLogger(logger.WithField("layer", "address")),
		address.WithMetrics(m),
		address.WithRecorder(recorder),
	}
	customerOpts := []customer.Option{
		customer.WithLogger(logger.WithField("layer", "customer")),
		customer.WithMetrics(m),
		customer.WithRecorder(recorder),
	}
	orderOpts := []order.Option{
		order.WithLogger(logger.WithField("layer", "order")),
		order.WithMetrics(m),
		order.WithRecorder(recorder),
	}
	ticketOpts := []ticket.Option{
		ticket.WithLogger(logger.WithField("layer", "ticket")),
		ticket.WithMetrics(m),
		ticket.WithRecorder(recorder),
	}
	if cfg.PageSize > 0 {
		catalogOpts = append(catalogOpts, catalog.WithPageSize(cfg.PageSize))
		addressOpts = append(addressOpts, address.WithPageSize(cfg.PageSize))
		customerOpts = append(customerOpts, customer.WithPageSize(cfg.PageSize))
		orderOpts = append(orderOpts, order.WithPageSize(cfg.PageSize))
		ticketOpts = append(ticketOpts, ticket.WithPageSize(cfg.PageSize))
	}
	if cfg.OrderHeaderFirst {
		orderOpts = append(orderOpts, order.WithHeaderFirst())
	}
	if cfg.OrderDeliveryReassignment {
		orderOpts = append(orderOpts, order.WithDeliveryReassignment())
	}

	addresses := address.New(repos.Addresses, repos.Customers, addressOpts...)
	orders := order.New(order.Repositories{
		Orders:    repos.Orders,
		Lines:     repos.Lines,
		Customers: repos.Customers,
		Addresses: repos.Addresses,
		Catalog:   repos.Catalog,
	}, addresses, orderOpts...)

	return &Services{
		Catalog:   catalog.New(repos.Catalog, catalogOpts...),
		Addresses: addresses,
		Customers: customer.New(repos.Customers, repos.Users, addresses, customerOpts...),
		Orders:    orders,
		Tickets:   ticket.New(repos.Tickets, orders, ticketOpts...),
		Reports: report.New(repos.Lines, repos.Catalog,
			report.WithLogger(logger.WithField("layer", "report")),
			report.WithMetrics(m),
		),
		Recorder: recorder,
	}
}
