package leave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leave-review/internal/events"
	"leave-review/internal/leave"
	leaveerrors "leave-review/internal/leave/errors"
	"leave-review/internal/leave/mock"
	"leave-review/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeEventPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, event events.LeaveRequestReviewedEvent) error
	published []events.LeaveRequestReviewedEvent
}

func (f *fakeEventPublisher) PublishLeaveRequestReviewed(ctx context.Context, event events.LeaveRequestReviewedEvent) error {
	f.mu.Lock()
	f.published = append(f.published, event)
	f.mu.Unlock()
	if f.publishFn != nil {
		return f.publishFn(ctx, event)
	}
	return nil
}

type leaveServiceDeps struct {
	source    *mock.MockSource
	publisher *fakeEventPublisher
	sessions  *leave.Sessions
	service   leave.Service
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	source := mock.NewMockSource(ctrl)
	publisher := &fakeEventPublisher{}
	sessions := leave.NewSessions(5, time.Hour)

	return &leaveServiceDeps{
		source:    source,
		publisher: publisher,
		sessions:  sessions,
		service:   leave.NewService(sessions, source, publisher, zap.NewNop()),
	}
}

func threeRecords() []leave.LeaveRequest {
	return []leave.LeaveRequest{
		newRecord("1", leave.StatusPending, baseTime),
		newRecord("2", leave.StatusApproved, baseTime.Add(time.Hour)),
		newRecord("3", leave.StatusPending, baseTime.Add(2*time.Hour)),
	}
}

func TestLeaveService_View(t *testing.T) {
	ctx := context.Background()

	t.Run("first view loads the session once", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil).Times(1)

		view, err := deps.service.View(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 3, view.Total)
		assert.Equal(t, []string{"3", "2", "1"}, ids(view.Items))
		assert.False(t, view.Loading)

		_, err = deps.service.View(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 1, deps.sessions.Len())
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil).Times(2)

		_, err := deps.service.Approve(ctx, "sess-1", "1")
		require.NoError(t, err)

		view, err := deps.service.SetFilter(ctx, "sess-2", "APPROVED")
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, ids(view.Items))
	})

	t.Run("blank session id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.View(ctx, "  ")
		assert.ErrorIs(t, err, leaveerrors.ErrSessionRequired)
	})

	t.Run("fetch failure renders empty view with error", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(nil, errors.New("dial tcp: refused"))

		view, err := deps.service.View(ctx, "sess-1")

		assert.ErrorIs(t, err, leaveerrors.ErrFetchFailed)
		assert.Empty(t, view.Items)
		assert.Equal(t, 1, view.TotalPages)
		assert.Equal(t, "Error fetching data", view.Error)
	})
}

func TestLeaveService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("refetches and keeps decisions", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		gomock.InOrder(
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil),
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(append(threeRecords(),
				newRecord("4", leave.StatusPending, baseTime.Add(3*time.Hour))), nil),
		)

		_, err := deps.service.Reject(ctx, "sess-1", "3")
		require.NoError(t, err)

		view, err := deps.service.Refresh(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 4, view.Total)
		assert.Equal(t, "4", view.Items[0].ID)
		assert.Equal(t, leave.StatusRejected, view.Items[1].Status)
	})

	t.Run("new session is loaded only once", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil).Times(1)

		view, err := deps.service.Refresh(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 3, view.Total)
	})

	t.Run("failure clears the set but not the decisions", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		gomock.InOrder(
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil),
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(nil, leaveerrors.ErrFetchFailed),
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil),
		)

		_, err := deps.service.Approve(ctx, "sess-1", "1")
		require.NoError(t, err)

		view, err := deps.service.Refresh(ctx, "sess-1")
		assert.ErrorIs(t, err, leaveerrors.ErrFetchFailed)
		assert.Equal(t, 0, view.Total)

		view, err = deps.service.Refresh(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, view.Error)
		assert.Equal(t, leave.StatusApproved, view.Items[2].Status)
	})
}

func TestLeaveService_ViewControls(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	deps.source.EXPECT().FetchAll(gomock.Any()).Return(newRecords(11), nil)

	view, err := deps.service.NextPage(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Page)

	view, err = deps.service.SetPage(ctx, "sess-1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(view.Items))

	view, err = deps.service.PrevPage(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Page)

	view, err = deps.service.ToggleSort(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, leave.SortAsc, view.Sort)
	assert.Equal(t, 1, view.Page)

	view, err = deps.service.SetSort(ctx, "sess-1", "desc")
	require.NoError(t, err)
	assert.Equal(t, leave.SortDesc, view.Sort)

	_, err = deps.service.SetSort(ctx, "sess-1", "sideways")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidSortOrder)

	_, err = deps.service.SetFilter(ctx, "sess-1", "UNKNOWN")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)

	_, err = deps.service.SetPage(ctx, "sess-1", 0)
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidPage)
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "rid-1")

	t.Run("success publishes event and updates the pending view", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil)

		_, err := deps.service.SetFilter(ctx, "sess-1", "PENDING")
		require.NoError(t, err)

		view, err := deps.service.Approve(ctx, "sess-1", "1")
		require.NoError(t, err)
		assert.Equal(t, 1, view.Total)
		assert.Equal(t, []string{"3"}, ids(view.Items))

		require.Len(t, deps.publisher.published, 1)
		event := deps.publisher.published[0]
		assert.Equal(t, "1", event.LeaveRequestID)
		assert.Equal(t, "APPROVED", event.Status)
		assert.Equal(t, "sess-1", event.SessionID)
		assert.Equal(t, "rid-1", event.RequestID)
		assert.False(t, event.OccurredAt.IsZero())
	})

	t.Run("publish failure keeps the decision", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil)
		deps.publisher.publishFn = func(ctx context.Context, event events.LeaveRequestReviewedEvent) error {
			return errors.New("broker down")
		}

		view, err := deps.service.Approve(ctx, "sess-1", "3")
		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, view.Items[0].Status)
	})

	t.Run("unknown id is recorded without error", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		gomock.InOrder(
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil),
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(append(threeRecords(),
				newRecord("99", leave.StatusPending, baseTime.Add(5*time.Hour))), nil),
		)

		view, err := deps.service.Approve(ctx, "sess-1", "99")
		require.NoError(t, err)
		assert.Equal(t, 3, view.Total)

		view, err = deps.service.Refresh(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "99", view.Items[0].ID)
		assert.Equal(t, leave.StatusApproved, view.Items[0].Status)
	})

	t.Run("negative fetch failed session records nothing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(nil, errors.New("down"))

		view, err := deps.service.Approve(ctx, "sess-1", "1")

		assert.ErrorIs(t, err, leaveerrors.ErrFetchFailed)
		assert.Equal(t, "Error fetching data", view.Error)
		assert.Empty(t, deps.publisher.published)

		d, ok := deps.sessions.Get("sess-1")
		require.True(t, ok)
		assert.Empty(t, d.Store().Overrides())
	})

	t.Run("negative reject after failed refresh records nothing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		gomock.InOrder(
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil),
			deps.source.EXPECT().FetchAll(gomock.Any()).Return(nil, errors.New("down")),
		)

		_, err := deps.service.View(ctx, "sess-1")
		require.NoError(t, err)
		_, err = deps.service.Refresh(ctx, "sess-1")
		require.ErrorIs(t, err, leaveerrors.ErrFetchFailed)

		_, err = deps.service.Reject(ctx, "sess-1", "1")

		assert.ErrorIs(t, err, leaveerrors.ErrFetchFailed)
		assert.Empty(t, deps.publisher.published)
		d, _ := deps.sessions.Get("sess-1")
		assert.Empty(t, d.Store().Overrides())
	})

	t.Run("blank id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.Approve(ctx, "sess-1", " ")
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveRequestIDRequired)
		assert.Empty(t, deps.publisher.published)
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	deps.source.EXPECT().FetchAll(gomock.Any()).Return(threeRecords(), nil)

	_, err := deps.service.Approve(ctx, "sess-1", "1")
	require.NoError(t, err)
	view, err := deps.service.Reject(ctx, "sess-1", "1")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusRejected, view.Items[2].Status)
	require.Len(t, deps.publisher.published, 2)
	assert.Equal(t, "REJECTED", deps.publisher.published[1].Status)
}

func TestLeaveService_Forward(t *testing.T) {
	ctx := context.Background()
	records := []leave.LeaveRequest{
		newRecord("1", leave.StatusPending, baseTime),
		newRecord("2", leave.StatusApproved, baseTime.Add(time.Hour)),
		newRecord("3", leave.StatusPending, baseTime.Add(2*time.Hour)),
		newRecord("4", leave.StatusRejected, baseTime.Add(3*time.Hour)),
		newRecord("5", leave.StatusPending, baseTime.Add(4*time.Hour)),
	}

	t.Run("decided first then newest first", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(records, nil)

		resp, err := deps.service.Forward(ctx, leave.ForwardQuery{Page: 1, Limit: 10, Status: "ALL"})

		require.NoError(t, err)
		assert.Equal(t, []string{"4", "2", "5", "3", "1"}, ids(resp.Data))
		assert.Equal(t, 5, resp.Total)
		assert.Equal(t, 1, resp.CurrentPage)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("filter and paginate", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(records, nil)

		resp, err := deps.service.Forward(ctx, leave.ForwardQuery{Page: 2, Limit: 2, Status: "PENDING"})

		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, ids(resp.Data))
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.TotalPages)
	})

	t.Run("empty result still has one page", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return([]leave.LeaveRequest{}, nil)

		resp, err := deps.service.Forward(ctx, leave.ForwardQuery{})

		require.NoError(t, err)
		assert.NotNil(t, resp.Data)
		assert.Equal(t, 0, resp.Total)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("source failure", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.source.EXPECT().FetchAll(gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := deps.service.Forward(ctx, leave.ForwardQuery{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, leaveerrors.ErrFetchFailed)
	})

	t.Run("invalid status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.Forward(ctx, leave.ForwardQuery{Page: 1, Limit: 10, Status: "MAYBE"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)
	})
}
