package leave

import (
	"context"
	"sync"
	"time"

	leaveerrors "leave-review/internal/leave/errors"
	"leave-review/internal/shared/response"

	"go.uber.org/zap"
)

const DefaultPageSize = 5

// Dashboard is one reviewer session: a Store plus the view state that drives
// the projection. Changing the filter or the sort order always returns to
// page 1.
type Dashboard struct {
	mu       sync.Mutex
	id       string
	store    *Store
	filter   StatusFilter
	sort     SortOrder
	page     int
	pageSize int
	inflight int
	err      error
	lastSeen time.Time
}

func NewDashboard(id string, pageSize int) *Dashboard {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Dashboard{
		id:       id,
		store:    NewStore(),
		filter:   FilterAll,
		sort:     SortDesc,
		page:     1,
		pageSize: pageSize,
		lastSeen: time.Now(),
	}
}

func (d *Dashboard) ID() string { return d.id }

func (d *Dashboard) Store() *Store { return d.store }

func (d *Dashboard) SetFilter(f StatusFilter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = f
	d.page = 1
}

func (d *Dashboard) SetSort(o SortOrder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = o
	d.page = 1
}

func (d *Dashboard) ToggleSort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = d.sort.Toggle()
	d.page = 1
}

// SetPage jumps to page p. Pages below 1 are ignored; a page past the end
// is kept and renders empty.
func (d *Dashboard) SetPage(p int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p >= 1 {
		d.page = p
	}
}

func (d *Dashboard) NextPage() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _, hasNext := d.navLocked()
	if hasNext {
		d.page++
	}
}

func (d *Dashboard) PrevPage() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, hasPrev, _ := d.navLocked()
	if hasPrev {
		d.page--
	}
}

// BeginLoad marks a fetch as outstanding. Controls keep working on the
// current data until it resolves.
func (d *Dashboard) BeginLoad() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight++
}

// FinishLoad merges a successful fetch and clears any previous error.
func (d *Dashboard) FinishLoad(records []LeaveRequest) LoadResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doneLocked()
	d.err = nil
	return d.store.Load(records)
}

// FailLoad empties the working set and keeps err for the view.
func (d *Dashboard) FailLoad(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doneLocked()
	d.store.Reset()
	d.err = err
}

func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, total := d.projectLocked()
	totalPages := response.TotalPages(int64(total), d.pageSize)
	loading := d.inflight > 0

	view := DashboardView{
		Items:      items,
		Total:      total,
		Page:       d.page,
		PageSize:   d.pageSize,
		TotalPages: totalPages,
		Status:     d.filter,
		Sort:       d.sort,
		Loading:    loading,
		HasPrev:    d.page > 1 && !loading,
		HasNext:    d.page < totalPages && !loading,
	}
	if d.err != nil {
		view.Error = leaveerrors.ErrFetchFailed.Message
	}
	return view
}

func (d *Dashboard) projectLocked() ([]LeaveRequest, int) {
	requests, overrides := d.store.Snapshot()
	return Project(requests, overrides, Query{
		Status:   d.filter,
		Sort:     d.sort,
		Page:     d.page,
		PageSize: d.pageSize,
	})
}

func (d *Dashboard) navLocked() (totalPages int, hasPrev, hasNext bool) {
	_, total := d.projectLocked()
	totalPages = response.TotalPages(int64(total), d.pageSize)
	loading := d.inflight > 0
	return totalPages, d.page > 1 && !loading, d.page < totalPages && !loading
}

func (d *Dashboard) doneLocked() {
	if d.inflight > 0 {
		d.inflight--
	}
}

// Sessions maps session ids to dashboards. Idle sessions are dropped by Sweep.
type Sessions struct {
	mu          sync.Mutex
	items       map[string]*Dashboard
	pageSize    int
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessions(pageSize int, idleTimeout time.Duration) *Sessions {
	return &Sessions{
		items:       make(map[string]*Dashboard),
		pageSize:    pageSize,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// GetOrCreate returns the dashboard for id, creating it when missing.
// created is true only for the call that created it.
func (s *Sessions) GetOrCreate(id string) (d *Dashboard, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if d, ok := s.items[id]; ok {
		d.lastSeen = now
		return d, false
	}
	d = NewDashboard(id, s.pageSize)
	d.lastSeen = now
	s.items[id] = d
	activeSessions.Set(float64(len(s.items)))
	return d, true
}

func (s *Sessions) Get(id string) (*Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if ok {
		d.lastSeen = s.now()
	}
	return d, ok
}

// SetClock replaces the time source used for idle tracking.
func (s *Sessions) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops sessions idle for longer than the idle timeout and returns
// how many were removed. A zero timeout keeps sessions forever.
func (s *Sessions) Sweep() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTimeout)
	removed := 0
	for id, d := range s.items {
		if d.lastSeen.Before(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	activeSessions.Set(float64(len(s.items)))
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	log := logger.Named("leave.sessions")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("session janitor started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			log.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Info("idle sessions removed", zap.Int("count", n))
			}
		}
	}
}
