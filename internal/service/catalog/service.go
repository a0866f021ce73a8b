// Package catalog управляет товарными предложениями, на которые ссылаются позиции заказов.
package catalog

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/eventlog"
)

const defaultPageSize = 6

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

// WithRecorder подключает запись доменных событий.
func WithRecorder(rec *eventlog.Recorder) Option {
	return func(s *Service) { s.events = rec }
}

// WithPageSize переопределяет размер страницы листинга.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// Service: операции над каталогом.
type Service struct {
	repo     domain.CatalogRepository
	events   *eventlog.Recorder
	metrics  *metrics.BackofficeMetrics
	logger   *log.Entry
	pageSize int
}

// New создаёт сервис каталога.
func New(repo domain.CatalogRepository, opts ...Option) *Service {
	s := &Service{repo: repo, pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "catalog-service")
	}
	return s
}

// List возвращает страницу товаров по возрастанию ID.
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.CatalogEntry, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, page.WithDefaultSize(s.pageSize))
	if err != nil {
		return nil, domain.Unexpected(err)
	}
	return entries, nil
}

// Get возвращает товар или NotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.CatalogEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.CatalogEntry{}, domain.NotFound(domain.EntityCatalogEntry, id)
	}
	if err != nil {
		return domain.CatalogEntry{}, domain.Unexpected(err)
	}
	return entry, nil
}

// Create сохраняет новый товар.
func (s *Service) Create(ctx context.Context, entry domain.CatalogEntry) (created domain.CatalogEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("catalog.create", domain.ErrorKind(err), time.Since(start)) }()

	if err := entry.Validate(); err != nil {
		return domain.CatalogEntry{}, err
	}
	entry.ID = 0
	created, err = s.repo.Create(ctx, entry)
	if err != nil {
		return domain.CatalogEntry{}, domain.Unexpected(err)
	}
	return created, nil
}

// Update полностью перезаписывает имя, цену, флаг продажи и состояние товара.
// Уже оформленные позиции заказов не пересчитываются.
func (s *Service) Update(ctx context.Context, id int64, payload domain.CatalogEntry) (updated domain.CatalogEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("catalog.update", domain.ErrorKind(err), time.Since(start)) }()

	if err := payload.Validate(); err != nil {
		return domain.CatalogEntry{}, err
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	entry.Overwrite(payload)
	if err := s.repo.Save(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CatalogEntry{}, domain.NotFound(domain.EntityCatalogEntry, id)
		}
		return domain.CatalogEntry{}, domain.Unexpected(err)
	}
	return entry, nil
}

// Delete снимает товар с продажи.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("catalog.delete", domain.ErrorKind(err), time.Since(start)) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(domain.EntityCatalogEntry, id)
		}
		return domain.Unexpected(err)
	}
	s.logger.WithField("entry_id", id).Info("catalog entry withdrawn from sale")
	s.events.Emit(ctx, domain.AggregateCatalog, id, domain.EventCatalogEntryWithdrawn, nil)
	return nil
}

// CountForSale возвращает число товаров, доступных для продажи.
func (s *Service) CountForSale(ctx context.Context) (int, error) {
	n, err := s.repo.CountForSale(ctx)
	if err != nil {
		return 0, domain.Unexpected(err)
	}
	return n, nil
}

// Count возвращает общее число товаров.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, domain.Unexpected(err)
	}
	return n, nil
}
