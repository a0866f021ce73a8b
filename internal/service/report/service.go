// Package report строит отчёты по продажам каталога на основе позиций заказов.
package report

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
)

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.BackofficeMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service: read-only отчёты.
type Service struct {
	lines   domain.OrderLineRepository
	catalog domain.CatalogRepository
	metrics *metrics.BackofficeMetrics
	logger  *log.Entry
}

// New создаёт сервис отчётов.
func New(lines domain.OrderLineRepository, catalog domain.CatalogRepository, opts ...Option) *Service {
	s := &Service{lines: lines, catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "report-service")
	}
	return s
}

// QuantitySold возвращает суммарное проданное количество по каждому товару.
func (s *Service) QuantitySold(ctx context.Context) (rows []domain.SalesRow, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("report.quantity_sold", domain.ErrorKind(err), time.Since(start)) }()

	rows, err = s.lines.QuantitySold(ctx)
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	for i := range rows {
		if rows[i].Name != "" {
			continue
		}
		entry, err := s.catalog.Get(ctx, rows[i].EntryID)
		if err != nil {
			// Позиция без записи каталога остаётся в отчёте без названия.
			s.logger.WithError(err).WithField("entry_id", rows[i].EntryID).Debug("catalog entry lookup failed")
			continue
		}
		rows[i].Name = entry.Name
	}
	return rows, nil
}

// NotSold возвращает товары, ни разу не попавшие в позиции заказов, с количеством 0.
func (s *Service) NotSold(ctx context.Context) (rows []domain.SalesRow, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("report.not_sold", domain.ErrorKind(err), time.Since(start)) }()

	sold, err := s.lines.QuantitySold(ctx)
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return s.notSold(ctx, sold)
}

// CatalogSales объединяет оба отчёта: сначала проданные товары, затем непроданные.
func (s *Service) CatalogSales(ctx context.Context) ([]domain.SalesRow, error) {
	sold, err := s.QuantitySold(ctx)
	if err != nil {
		return nil, err
	}
	unsold, err := s.notSold(ctx, sold)
	if err != nil {
		return nil, err
	}
	return append(sold, unsold...), nil
}

func (s *Service) notSold(ctx context.Context, sold []domain.SalesRow) ([]domain.SalesRow, error) {
	ids := make([]int64, len(sold))
	for i, row := range sold {
		ids[i] = row.EntryID
	}
	entries, err := s.catalog.ListExcluding(ctx, ids)
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	rows := make([]domain.SalesRow, len(entries))
	for i, entry := range entries {
		rows[i] = domain.SalesRow{EntryID: entry.ID, Name: entry.Name}
	}
	return rows, nil
}
