package audit

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

type stubTimelineRepo struct {
	rows       []TimelineRow
	err        error
	lastWindow WindowParams
	lastAll    WindowParams
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastWindow = arg
	return s.rows, s.err
}

func (s *stubTimelineRepo) TimelineAll(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastAll = arg
	return s.rows, s.err
}

func userID(id int64) *int64 { return &id }

func mockRow(id int64, at string, uid *int64, username, action string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{ID: id, At: ts, UserID: uid, Username: username, Action: action, Details: action + " details"}
}

var admin = rbac.NewPrincipal(2, "ada", "Admin", "")

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		mockRow(3, "2024-03-10T10:00:00Z", userID(1), "root", shared.ActionProductAdded),
		mockRow(2, "2024-03-09T09:00:00Z", nil, "", shared.ActionUserDeleted),
		mockRow(1, "2024-03-08T08:00:00Z", userID(1), "root", shared.ActionUserLogin),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), admin, TimelineFilters{Query: "  root ", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
	require.Equal(t, 3, result.Paging.NextPage)
	require.Equal(t, 3, repo.lastWindow.Limit)
	require.Equal(t, 2, repo.lastWindow.Offset)
	require.Equal(t, "root", repo.lastWindow.Query)
	require.Equal(t, SystemUsername, result.Rows[1].Username)
}

func TestServiceTimelineDefaults(t *testing.T) {
	repo := &stubTimelineRepo{}
	result, err := NewService(repo).Timeline(context.Background(), admin, TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Empty(t, result.Rows)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, shared.MaxPageSize+1, repo.lastWindow.Limit)
	require.Equal(t, 0, repo.lastWindow.Offset)
}

func TestServiceTimelineClampsHugePage(t *testing.T) {
	repo := &stubTimelineRepo{}
	result, err := NewService(repo).Timeline(context.Background(), admin, TimelineFilters{Page: math.MaxInt, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, shared.MaxPage, result.Paging.Page)
	require.Positive(t, repo.lastWindow.Offset)
	require.Equal(t, (shared.MaxPage-1)*10, repo.lastWindow.Offset)
}

func TestServiceRejectsStaff(t *testing.T) {
	repo := &stubTimelineRepo{}
	staff := rbac.NewPrincipal(4, "sam", "Staff", rbac.DefaultCapabilities(rbac.RoleStaff).Encode())

	_, err := NewService(repo).Timeline(context.Background(), staff, TimelineFilters{})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	_, err = NewService(repo).Export(context.Background(), staff, TimelineFilters{})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestServiceExport(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{mockRow(1, "2024-03-08T08:00:00Z", nil, "", shared.ActionUserLogout)}}
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	manager := rbac.NewPrincipal(3, "max", "Manager", "")

	rows, err := NewService(repo).Export(context.Background(), manager, TimelineFilters{From: from})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, SystemUsername, rows[0].Username)
	require.Equal(t, from, repo.lastAll.From)
	require.Zero(t, repo.lastAll.Limit)
}

func TestServiceStorageFailure(t *testing.T) {
	repo := &stubTimelineRepo{err: shared.Storage("audit: timeline window", errors.New("broken pipe"))}
	_, err := NewService(repo).Timeline(context.Background(), admin, TimelineFilters{})
	require.ErrorIs(t, err, shared.ErrStorageUnavailable)
}
