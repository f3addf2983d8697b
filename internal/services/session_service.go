package services

import (
	"context"
	"sync"
	"time"

	"storefront/internal/debounce"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pagination"
	"storefront/internal/pricerange"
	"storefront/internal/state"
	"storefront/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionConfig tunes browsing sessions.
type SessionConfig struct {
	ItemsPerPage   int
	FilterDebounce time.Duration
	PriceDebounce  time.Duration
	SliderInterval time.Duration
	TTL            time.Duration
	JanitorEvery   time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.ItemsPerPage <= 0 {
		c.ItemsPerPage = state.DefaultItemsPerPage
	}
	if c.FilterDebounce <= 0 {
		c.FilterDebounce = 500 * time.Millisecond
	}
	if c.PriceDebounce <= 0 {
		c.PriceDebounce = 500 * time.Millisecond
	}
	if c.SliderInterval <= 0 {
		c.SliderInterval = state.DefaultAutoPlayIntervalMs * time.Millisecond
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.JanitorEvery <= 0 {
		c.JanitorEvery = time.Minute
	}
	return c
}

// Status is the loading/error block of a session view.
type Status struct {
	Loading bool   `json:"loading"`
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
}

// Results is the current page of the last applied fetch.
type Results struct {
	Items         []models.CatalogItem `json:"items"`
	Counts        models.OptionCounts  `json:"counts"`
	CountsSkipped bool                 `json:"countsSkipped"`
	Pagination    pagination.Info      `json:"pagination"`
}

// SessionView is everything a client renders for one session.
type SessionView struct {
	ID      string               `json:"id"`
	State   state.State          `json:"state"`
	Price   pricerange.View      `json:"price"`
	Config  *models.FilterConfig `json:"filterConfig"`
	Results Results              `json:"results"`
	Status  Status               `json:"status"`
}

type pricePatch struct {
	min, max *float64
}

// Session is one visitor's catalog view: filter store, price editor,
// debounced fetches and the slider autoplay.
type Session struct {
	id      string
	catalog *CatalogService
	cfg     SessionConfig
	store   *state.Store

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pushFilters func(state.State) bool
	pushPrice   func(pricePatch) bool

	mu       sync.Mutex
	price    *pricerange.Editor
	config   *models.FilterConfig
	items    []models.CatalogItem
	counts   models.OptionCounts
	skipped  bool
	status   Status
	issued   uint64
	lastSeen time.Time
}

func newSession(parent context.Context, catalog *CatalogService, cfg SessionConfig, category domain.Category) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:       uuid.NewString(),
		catalog:  catalog,
		cfg:      cfg,
		store:    state.NewStore(state.New(category, cfg.ItemsPerPage, int(cfg.SliderInterval/time.Millisecond))),
		ctx:      ctx,
		cancel:   cancel,
		price:    pricerange.NewEditor(models.DefaultPriceBounds, nil, nil),
		items:    []models.CatalogItem{},
		lastSeen: time.Now(),
	}

	s.pushFilters = debounce.Pipe(ctx, cfg.FilterDebounce, s.fetch)
	s.pushPrice = debounce.Pipe(ctx, cfg.PriceDebounce, s.applyPrice)

	updates, unsubscribe := s.store.Subscribe()
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.watch(updates)
	}()
	go func() {
		defer s.wg.Done()
		state.RunAutoplay(ctx, s.store, cfg.SliderInterval)
	}()

	s.loadCategory(category)
	return s
}

// ID is the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// watch feeds filter changes into the debounce pipeline. Category switches
// load eagerly in loadCategory and are not debounced.
func (s *Session) watch(updates <-chan state.State) {
	last := s.store.State()
	for {
		select {
		case <-s.ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.Category != last.Category {
				last = snap
				continue
			}
			if !snap.Filters.Equal(last.Filters) {
				s.pushFilters(snap)
			}
			last = snap
		}
	}
}

// loadCategory reloads configuration, showcase and items of category in the
// background. A closed session starts nothing.
func (s *Session) loadCategory(category domain.Category) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.config = nil
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx := s.ctx

		cfg, err := s.catalog.FilterConfig(ctx, category)
		if err != nil {
			utils.LogFailure(s.id, "session", "load_config", err)
		} else if s.store.State().Category == category {
			s.mu.Lock()
			s.config = &cfg
			s.price.SetBounds(cfg.Price)
			s.mu.Unlock()
		}

		slides, err := s.catalog.Slides(ctx, category)
		if err != nil {
			utils.LogFailure(s.id, "session", "load_slides", err)
		} else if s.store.State().Category == category {
			s.store.Dispatch(state.SetSlides{Slides: slides})
		}

		s.fetch(s.store.State())
	}()
}

// issue starts a new fetch generation and marks the session loading.
func (s *Session) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.status = Status{Loading: true}
	return s.issued
}

// fetch loads items and counts for snap. Results are applied only when no
// newer fetch was issued meanwhile.
func (s *Session) fetch(snap state.State) {
	if s.ctx.Err() != nil {
		return
	}
	if snap.Category != s.store.State().Category {
		return
	}
	gen := s.issue()

	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	items, err := s.catalog.FetchItems(s.ctx, snap.Category, snap.Filters)
	var (
		counts  models.OptionCounts
		skipped bool
	)
	if err == nil {
		counts, skipped, err = s.catalog.FetchCounts(s.ctx, snap.Category, snap.Filters, cfg)
	}
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		utils.L().Debug("stale fetch dropped", zap.String("session", s.id), zap.Uint64("gen", gen), zap.Uint64("latest", s.issued))
		return
	}
	if err != nil {
		utils.LogFailure(s.id, "session", "fetch", err)
		s.status = Status{Error: true, Message: err.Error()}
		return
	}
	s.items = items
	s.counts = counts
	s.skipped = skipped
	s.status = Status{}
}

func (s *Session) applyPrice(p pricePatch) {
	patch := state.FilterPatch{MinPrice: state.Unset[float64](), MaxPrice: state.Unset[float64]()}
	if p.min != nil {
		patch.MinPrice = state.SetTo(*p.min)
	}
	if p.max != nil {
		patch.MaxPrice = state.SetTo(*p.max)
	}
	s.store.Dispatch(state.SetFilters{Patch: patch})
}

// View renders the session. The result page is cut from the last applied
// fetch using the store's current page; the page is never clamped here.
func (s *Session) View() SessionView {
	s.touch()
	snap := s.store.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	perPage := snap.Pagination.ItemsPerPage
	page := snap.Pagination.CurrentPage
	var cfg *models.FilterConfig
	if s.config != nil {
		c := *s.config
		cfg = &c
	}
	return SessionView{
		ID:     s.id,
		State:  snap,
		Price:  s.price.View(),
		Config: cfg,
		Results: Results{
			Items:         append([]models.CatalogItem{}, pagination.Slice(s.items, perPage, page)...),
			Counts:        s.counts,
			CountsSkipped: s.skipped,
			Pagination:    pagination.Describe(len(s.items), perPage, page),
		},
		Status: s.status,
	}
}

// PatchFilters merges patch into the selection. Price values also move the
// price editor.
func (s *Session) PatchFilters(patch state.FilterPatch) SessionView {
	snap := s.store.Dispatch(state.SetFilters{Patch: patch})
	if patch.MinPrice.Set || patch.MaxPrice.Set {
		s.syncPrice(snap.Filters)
	}
	return s.View()
}

// ClearFilters resets the selection and the price editor.
func (s *Session) ClearFilters() SessionView {
	snap := s.store.Dispatch(state.ClearFilters{})
	s.syncPrice(snap.Filters)
	return s.View()
}

func (s *Session) syncPrice(f domain.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = pricerange.NewEditor(s.price.Bounds(), f.MinPrice, f.MaxPrice)
}

// SetSort applies a sort key; nil removes sorting.
func (s *Session) SetSort(key *domain.SortKey) SessionView {
	s.store.Dispatch(state.SetSort{SortBy: key})
	return s.View()
}

// SetCategory switches section. Switching to the current category is a no-op.
func (s *Session) SetCategory(category domain.Category) (SessionView, error) {
	if !category.Valid() {
		return SessionView{}, domain.ValidationError{Field: "category", Msg: "unknown category"}
	}
	before := s.store.State().Category
	s.store.Dispatch(state.SetCategory{Category: category})
	if before != category {
		s.mu.Lock()
		s.price = pricerange.NewEditor(models.DefaultPriceBounds, nil, nil)
		s.items = []models.CatalogItem{}
		s.counts = nil
		s.mu.Unlock()
		s.loadCategory(category)
	}
	return s.View(), nil
}

// RequestPage moves to page within the known result set.
func (s *Session) RequestPage(page int) (pagination.Change, SessionView) {
	nav := pagination.Navigator{
		Current: func() int { return s.store.State().Pagination.CurrentPage },
		TotalPages: func() int {
			s.mu.Lock()
			defer s.mu.Unlock()
			return pagination.TotalPages(len(s.items), s.store.State().Pagination.ItemsPerPage)
		},
		Apply: func(p int) { s.store.Dispatch(state.SetPage{Page: p}) },
	}
	change := nav.Request(page)
	return change, s.View()
}

// PriceInput records keystrokes in one price field.
func (s *Session) PriceInput(f pricerange.Field, raw string) (bool, SessionView) {
	s.mu.Lock()
	ok := s.price.Input(f, raw)
	s.mu.Unlock()
	return ok, s.View()
}

// PriceBlur commits a price field and schedules the debounced filter update.
func (s *Session) PriceBlur(f pricerange.Field) SessionView {
	s.mu.Lock()
	s.price.Blur(f)
	lo, hi := s.price.Patch()
	s.mu.Unlock()
	s.pushPrice(pricePatch{min: lo, max: hi})
	return s.View()
}

// PriceDrag moves a slider handle and schedules the debounced filter update.
func (s *Session) PriceDrag(f pricerange.Field, v float64) SessionView {
	s.mu.Lock()
	s.price.Drag(f, v)
	lo, hi := s.price.Patch()
	s.mu.Unlock()
	s.pushPrice(pricePatch{min: lo, max: hi})
	return s.View()
}

// Slider dispatches a slider action.
func (s *Session) Slider(a state.Action) SessionView {
	s.store.Dispatch(a)
	return s.View()
}

// close stops debounce pipelines, autoplay and in-flight loads. Pending
// debounced values are discarded.
func (s *Session) close() {
	// cancel under mu so loadCategory never adds to wg once Wait may run
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// SessionManager owns all live sessions and expires idle ones.
type SessionManager struct {
	catalog *CatalogService
	cfg     SessionConfig

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager starts the idle janitor; Close stops it.
func NewSessionManager(catalog *CatalogService, cfg SessionConfig) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &SessionManager{
		catalog:  catalog,
		cfg:      cfg.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		sessions: map[string]*Session{},
	}
	go m.janitor()
	return m
}

// Create opens a session on category.
func (m *SessionManager) Create(category domain.Category) (*Session, error) {
	if !category.Valid() {
		return nil, domain.ValidationError{Field: "category", Msg: "unknown category"}
	}
	if m.ctx.Err() != nil {
		return nil, domain.ConflictError{Resource: "session", Msg: "shutting down"}
	}
	s := newSession(m.ctx, m.catalog, m.cfg, category)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	utils.LogEvent(s.id, "session", "create", "session opened", zap.String("category", string(category)))
	return s, nil
}

// Get returns a live session.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError{Resource: "session"}
	}
	s.touch()
	return s, nil
}

// Delete closes and forgets a session.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.NotFoundError{Resource: "session"}
	}
	s.close()
	utils.LogEvent(id, "session", "delete", "session closed")
	return nil
}

// Len is the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) janitor() {
	defer close(m.done)
	ticker := time.NewTicker(m.cfg.JanitorEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

// expire closes sessions idle for longer than the TTL.
func (m *SessionManager) expire(now time.Time) int {
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.cfg.TTL {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		utils.LogEvent(s.id, "session", "expire", "idle session closed")
	}
	return len(stale)
}

// Close tears every session down and stops the janitor.
func (m *SessionManager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
