package leave

import (
	"context"
	"errors"
	"strings"
	"time"

	"leave-review/internal/events"
	leaveerrors "leave-review/internal/leave/errors"
	"leave-review/internal/shared/contextutil"
	"leave-review/internal/shared/response"

	"go.uber.org/zap"
)

type Service interface {
	View(ctx context.Context, sessionID string) (DashboardView, error)
	Refresh(ctx context.Context, sessionID string) (DashboardView, error)
	SetFilter(ctx context.Context, sessionID string, status string) (DashboardView, error)
	SetSort(ctx context.Context, sessionID string, order string) (DashboardView, error)
	ToggleSort(ctx context.Context, sessionID string) (DashboardView, error)
	SetPage(ctx context.Context, sessionID string, page int) (DashboardView, error)
	NextPage(ctx context.Context, sessionID string) (DashboardView, error)
	PrevPage(ctx context.Context, sessionID string) (DashboardView, error)
	Approve(ctx context.Context, sessionID, id string) (DashboardView, error)
	Reject(ctx context.Context, sessionID, id string) (DashboardView, error)
	Forward(ctx context.Context, q ForwardQuery) (ForwardResponse, error)
}

type service struct {
	sessions  *Sessions
	source    Source
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(sessions *Sessions, source Source, publisher EventPublisher, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if publisher == nil {
		publisher = NewNoopEventPublisher()
	}
	return &service{sessions: sessions, source: source, publisher: publisher, logger: l}
}

func (s *service) View(ctx context.Context, sessionID string) (DashboardView, error) {
	return s.apply(ctx, sessionID, nil)
}

func (s *service) Refresh(ctx context.Context, sessionID string) (DashboardView, error) {
	d, created, err := s.session(ctx, sessionID)
	if err != nil {
		return DashboardView{}, err
	}
	// a brand new session was loaded by session() already
	if !created {
		s.load(ctx, d)
	}
	return render(d)
}

func (s *service) SetFilter(ctx context.Context, sessionID string, status string) (DashboardView, error) {
	f, ok := ParseStatusFilter(status)
	if !ok {
		return DashboardView{}, leaveerrors.ErrInvalidStatusFilter
	}
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.SetFilter(f) })
}

func (s *service) SetSort(ctx context.Context, sessionID string, order string) (DashboardView, error) {
	o, ok := ParseSortOrder(order)
	if !ok {
		return DashboardView{}, leaveerrors.ErrInvalidSortOrder
	}
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.SetSort(o) })
}

func (s *service) ToggleSort(ctx context.Context, sessionID string) (DashboardView, error) {
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.ToggleSort() })
}

func (s *service) SetPage(ctx context.Context, sessionID string, page int) (DashboardView, error) {
	if page < 1 {
		return DashboardView{}, leaveerrors.ErrInvalidPage
	}
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.SetPage(page) })
}

func (s *service) NextPage(ctx context.Context, sessionID string) (DashboardView, error) {
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.NextPage() })
}

func (s *service) PrevPage(ctx context.Context, sessionID string) (DashboardView, error) {
	return s.apply(ctx, sessionID, func(d *Dashboard) { d.PrevPage() })
}

func (s *service) Approve(ctx context.Context, sessionID, id string) (DashboardView, error) {
	return s.decide(ctx, sessionID, id, StatusApproved)
}

func (s *service) Reject(ctx context.Context, sessionID, id string) (DashboardView, error) {
	return s.decide(ctx, sessionID, id, StatusRejected)
}

func (s *service) decide(ctx context.Context, sessionID, id string, status Status) (DashboardView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DashboardView{}, leaveerrors.ErrLeaveRequestIDRequired
	}
	if !status.IsTerminal() {
		return DashboardView{}, leaveerrors.ErrInvalidDecision
	}

	d, _, err := s.session(ctx, sessionID)
	if err != nil {
		return DashboardView{}, err
	}
	// the error view replaces the list, nothing can be reviewed until a refresh succeeds
	if err := d.Err(); err != nil {
		return d.View(), err
	}

	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("review leave request requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.String("leave_request_id", id),
		zap.String("status", string(status)),
	)

	d.Store().UpdateStatus(id, status)
	decisions.WithLabelValues(string(status)).Inc()

	event := events.LeaveRequestReviewedEvent{
		EventType:      "leave_request_reviewed",
		RequestID:      rid,
		SessionID:      sessionID,
		LeaveRequestID: id,
		Status:         string(status),
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.PublishLeaveRequestReviewed(ctx, event); err != nil {
		// the local decision stands; the event is informational
		s.logger.Error("publish leave request reviewed failed",
			zap.String("request_id", rid),
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
	}

	s.logger.Info("review leave request success",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.String("leave_request_id", id),
		zap.String("status", string(status)),
	)
	return render(d)
}

// Forward serves the remote collection filtered by stored status, decided
// requests first and newest first within each group, one page at a time.
func (s *service) Forward(ctx context.Context, q ForwardQuery) (ForwardResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	filter, ok := ParseStatusFilter(q.Status)
	if !ok {
		if q.Status != "" {
			return ForwardResponse{}, leaveerrors.ErrInvalidStatusFilter
		}
		filter = FilterAll
	}

	records, err := s.source.FetchAll(ctx)
	if err != nil {
		err = asFetchFailed(err)
		s.logger.Error("forward leave requests failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return ForwardResponse{}, err
	}

	filtered := make([]LeaveRequest, 0, len(records))
	for _, r := range records {
		if filter.Matches(r.Status) {
			filtered = append(filtered, r)
		}
	}
	sortForForwarding(filtered)

	return ForwardResponse{
		Data:        Paginate(filtered, q.Page, q.Limit),
		Total:       len(filtered),
		CurrentPage: q.Page,
		TotalPages:  response.TotalPages(int64(len(filtered)), q.Limit),
	}, nil
}

// apply runs fn against the session and renders the result.
func (s *service) apply(ctx context.Context, sessionID string, fn func(d *Dashboard)) (DashboardView, error) {
	d, _, err := s.session(ctx, sessionID)
	if err != nil {
		return DashboardView{}, err
	}
	if fn != nil {
		fn(d)
	}
	return render(d)
}

// session resolves the dashboard for sessionID. A new session is populated
// from the source before it is returned.
func (s *service) session(ctx context.Context, sessionID string) (*Dashboard, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, false, leaveerrors.ErrSessionRequired
	}
	d, created := s.sessions.GetOrCreate(sessionID)
	if created {
		s.logger.Info("review session started", zap.String("session_id", sessionID))
		s.load(ctx, d)
	}
	return d, created, nil
}

// load fetches without holding any session lock; whichever fetch resolves
// last determines the working set.
func (s *service) load(ctx context.Context, d *Dashboard) {
	rid := contextutil.GetRequestID(ctx)
	d.BeginLoad()

	records, err := s.source.FetchAll(ctx)
	if err != nil {
		err = asFetchFailed(err)
		d.FailLoad(err)
		s.logger.Error("load leave requests failed",
			zap.String("request_id", rid),
			zap.String("session_id", d.ID()),
			zap.Error(err),
		)
		return
	}

	res := d.FinishLoad(records)
	for _, c := range res.Conflicts {
		overrideConflicts.Inc()
		s.logger.Warn("fetched status disagrees with local decision, keeping local",
			zap.String("session_id", d.ID()),
			zap.String("leave_request_id", c.ID),
			zap.String("fetched_status", string(c.Fetched)),
			zap.String("local_status", string(c.Override)),
		)
	}
	s.logger.Info("load leave requests success",
		zap.String("request_id", rid),
		zap.String("session_id", d.ID()),
		zap.Int("merged", res.Merged),
		zap.Int("skipped", res.Skipped),
	)
}

func render(d *Dashboard) (DashboardView, error) {
	view := d.View()
	if err := d.Err(); err != nil {
		return view, err
	}
	return view, nil
}

func asFetchFailed(err error) error {
	if errors.Is(err, leaveerrors.ErrFetchFailed) {
		return err
	}
	return leaveerrors.ErrFetchFailed.WithCause(err)
}
