// Package selection реализует хранилище состояния шага выбора контейнера.
package selection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/skip-selection/internal/catalog"
	"github.com/mmeshcher/skip-selection/internal/model"
)

// ErrNoSelection возвращается при попытке продолжить без выбранного варианта.
var ErrNoSelection = errors.New("no skip selected")

const fetchFailedMessage = "Failed to fetch skips"

// Fetcher описывает источник каталога вариантов.
type Fetcher interface {
	FetchCatalog(ctx context.Context, loc model.Location) ([]model.SkipOption, error)
}

// BookingSaver описывает получателя черновика бронирования следующего шага.
type BookingSaver interface {
	SaveBooking(ctx context.Context, b model.Booking) error
}

// Store владеет состоянием выбора и управляет жизненным циклом загрузки каталога.
// Одновременно выполняется не более одной загрузки.
type Store struct {
	fetcher  Fetcher
	location model.Location
	bookings BookingSaver
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	catalog      []model.SkipOption
	selected     *model.SkipOption
	status       model.Status
	errorMessage string
	version      uint64
	inflight     chan struct{}

	subscribers map[int]chan model.Snapshot
	nextSubID   int
}

// NewStore создаёт хранилище в состоянии Idle.
// bookings может быть nil: тогда черновик бронирования не сохраняется.
func NewStore(fetcher Fetcher, loc model.Location, bookings BookingSaver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		fetcher:     fetcher,
		location:    loc,
		bookings:    bookings,
		logger:      logger,
		now:         time.Now,
		catalog:     []model.SkipOption{},
		status:      model.StatusIdle,
		subscribers: make(map[int]chan model.Snapshot),
	}
}

// Location возвращает локацию, для которой загружается каталог.
func (s *Store) Location() model.Location {
	return s.location
}

// RequestCatalog запускает загрузку каталога, если он ещё не загружен или прошлая попытка завершилась ошибкой.
// Возвращаемый канал закрывается, когда попытка завершена. Во время загрузки
// повторный вызов возвращает канал текущей попытки. Присоединившиеся вызовы
// разделяют ctx первого: его отмена отменяет попытку и для них, состояние
// возвращается к исходному, и запрос нужно повторить.
func (s *Store) RequestCatalog(ctx context.Context) <-chan struct{} {
	return s.request(ctx, false)
}

// Refresh принудительно перезагружает каталог, в том числе из состояния Ready.
// Во время загрузки ведёт себя как RequestCatalog.
func (s *Store) Refresh(ctx context.Context) <-chan struct{} {
	return s.request(ctx, true)
}

func (s *Store) request(ctx context.Context, force bool) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.StatusLoading:
		return s.inflight
	case model.StatusReady:
		if !force {
			return closedChan()
		}
	}

	prevStatus, prevMessage := s.status, s.errorMessage

	done := make(chan struct{})
	s.inflight = done
	s.status = model.StatusLoading
	s.errorMessage = ""
	s.publishLocked()

	s.logger.Debug("catalog fetch started",
		zap.String("postcode", s.location.Postcode),
		zap.String("area", s.location.Area),
		zap.Bool("force", force),
	)

	go s.fetch(ctx, done, prevStatus, prevMessage)

	return done
}

func (s *Store) fetch(ctx context.Context, done chan struct{}, prevStatus model.Status, prevMessage string) {
	defer close(done)

	options, err := s.fetcher.FetchCatalog(ctx, s.location)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight = nil

	// Результат отменённой загрузки отбрасывается, состояние возвращается к исходному.
	if ctx.Err() != nil {
		s.status = prevStatus
		s.errorMessage = prevMessage
		s.publishLocked()
		s.logger.Debug("catalog fetch cancelled", zap.Error(ctx.Err()))
		return
	}

	if err != nil {
		s.status = model.StatusFailed
		s.errorMessage = failureMessage(err)
		s.publishLocked()
		s.logger.Warn("catalog fetch failed", zap.Error(err))
		return
	}

	s.catalog = slices.Clone(options)
	if s.catalog == nil {
		s.catalog = []model.SkipOption{}
	}
	s.version++
	s.status = model.StatusReady
	s.publishLocked()

	s.logger.Info("catalog loaded",
		zap.Int("options", len(options)),
		zap.Uint64("version", s.version),
	)
}

func failureMessage(err error) string {
	var fe *catalog.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case catalog.KindUnavailable:
			return fmt.Sprintf("%s: service responded with status %d", fetchFailedMessage, fe.StatusCode)
		case catalog.KindNetwork:
			return fmt.Sprintf("%s: network error", fetchFailedMessage)
		case catalog.KindMalformed:
			return fmt.Sprintf("%s: unexpected response from service", fetchFailedMessage)
		}
	}
	if err.Error() == "" {
		return fetchFailedMessage
	}
	return fmt.Sprintf("%s: %s", fetchFailedMessage, err.Error())
}

// Select запоминает выбранный вариант без проверки его наличия в каталоге.
func (s *Store) Select(option model.SkipOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = &option
	s.publishLocked()
}

// ClearSelection сбрасывает выбранный вариант.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = nil
	s.publishLocked()
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		Catalog:      slices.Clone(s.catalog),
		Status:       s.status,
		ErrorMessage: s.errorMessage,
		Version:      s.version,
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}

// Subscribe возвращает канал, в который публикуется последнее состояние после каждого изменения.
// Канал сразу содержит текущее состояние. Медленный подписчик получает только самое свежее.
// Возвращаемая функция отменяет подписку и закрывает канал.
func (s *Store) Subscribe() (<-chan model.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan model.Snapshot, 1)
	ch <- s.snapshotLocked()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}

	return ch, cancel
}

func (s *Store) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}

	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Continue формирует черновик бронирования из выбранного варианта и передаёт его на следующий шаг.
// Выбор при этом не сбрасывается.
func (s *Store) Continue(ctx context.Context) (model.Booking, error) {
	s.mu.Lock()
	var selected *model.SkipOption
	if s.selected != nil {
		sel := *s.selected
		selected = &sel
	}
	s.mu.Unlock()

	if selected == nil {
		return model.Booking{}, ErrNoSelection
	}

	b := model.Booking{
		ID:         uuid.New(),
		Postcode:   s.location.Postcode,
		Area:       s.location.Area,
		Skip:       *selected,
		TotalPrice: selected.TotalPrice(),
		CreatedAt:  s.now().UTC(),
	}

	if s.bookings != nil {
		if err := s.bookings.SaveBooking(ctx, b); err != nil {
			return model.Booking{}, fmt.Errorf("save booking: %w", err)
		}
	}

	s.logger.Info("selection continued",
		zap.String("booking", b.ID.String()),
		zap.Int64("skip", b.Skip.ID),
		zap.Float64("total", b.TotalPrice),
	)

	return b, nil
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
