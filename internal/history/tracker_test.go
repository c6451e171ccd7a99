package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/models"
)

type mockEventRepo struct {
	createErr  error
	created    []*models.SearchEvent
	sinceCalls []time.Time
	limitCalls []int
	popular    []models.PopularOccupation
	popularErr error
}

func (m *mockEventRepo) Create(_ context.Context, event *models.SearchEvent) error {
	if m.createErr != nil {
		return m.createErr
	}
	event.ID = int64(len(m.created) + 1)
	m.created = append(m.created, event)
	return nil
}

func (m *mockEventRepo) PopularSince(_ context.Context, since time.Time, limit int) ([]models.PopularOccupation, error) {
	m.sinceCalls = append(m.sinceCalls, since)
	m.limitCalls = append(m.limitCalls, limit)
	return m.popular, m.popularErr
}

func TestCutoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		days int
		want time.Time
	}{
		{
			name: "same month",
			now:  time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
			days: 7,
			want: time.Date(2026, 10, 9, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses month boundary",
			now:  time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC),
			days: 7,
			want: time.Date(2026, 2, 24, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "crosses year boundary",
			now:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			days: 30,
			want: time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "zero days",
			now:  time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
			days: 0,
			want: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.want.Equal(Cutoff(tt.now, tt.days)), "Cutoff() = %v, want %v", Cutoff(tt.now, tt.days), tt.want)
		})
	}
}

func TestRecordSearch_SwallowsErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	repo := &mockEventRepo{createErr: errors.New("database is locked")}
	tracker := NewTracker(repo, zap.New(core))

	tracker.RecordSearch(context.Background(), "Bakers", models.LanguageEnglish, "10.0.0.1")

	assert.Empty(t, repo.created)
	assert.Equal(t, 1, logs.FilterMessage("failed_to_record_search_event").Len())
}

func TestRecordSearch_OptionalClientIP(t *testing.T) {
	t.Parallel()

	repo := &mockEventRepo{}
	tracker := NewTracker(repo, nil)

	tracker.RecordSearch(context.Background(), "Bakers", models.LanguageEnglish, "")
	tracker.RecordSearch(context.Background(), "面包师", models.LanguageChinese, "10.0.0.1")

	require.Len(t, repo.created, 2)
	assert.Nil(t, repo.created[0].ClientIP)
	require.NotNil(t, repo.created[1].ClientIP)
	assert.Equal(t, "10.0.0.1", *repo.created[1].ClientIP)
	assert.Equal(t, models.LanguageChinese, repo.created[1].Language)
}

func TestPopular_UsesCalendarCutoff(t *testing.T) {
	t.Parallel()

	repo := &mockEventRepo{popular: []models.PopularOccupation{{Title: "Bakers", Count: 2}}}
	tracker := NewTracker(repo, nil)
	tracker.now = func() time.Time { return time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC) }

	got, err := tracker.Popular(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, repo.popular, got)
	require.Len(t, repo.sinceCalls, 1)
	assert.True(t, repo.sinceCalls[0].Equal(time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []int{5}, repo.limitCalls)
}

func TestPopular_RejectsNegative(t *testing.T) {
	t.Parallel()

	repo := &mockEventRepo{}
	tracker := NewTracker(repo, nil)

	_, err := tracker.Popular(context.Background(), -1, 5)
	assert.Error(t, err)
	_, err = tracker.Popular(context.Background(), 7, -1)
	assert.Error(t, err)
	assert.Empty(t, repo.sinceCalls)
}

func TestTracker_ThreeSearchesCountThree(t *testing.T) {
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tracker := NewTracker(database.NewSearchEventRepository(db), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tracker.RecordSearch(ctx, "Bakers", models.LanguageEnglish, "10.0.0.1")
	}
	tracker.RecordSearch(ctx, "Cashiers", models.LanguageEnglish, "")

	popular, err := tracker.Popular(ctx, 7, 10)
	require.NoError(t, err)
	require.NotEmpty(t, popular)
	assert.Equal(t, models.PopularOccupation{Title: "Bakers", Count: 3}, popular[0])
	assert.Len(t, popular, 2)

	popular, err = tracker.Popular(ctx, 7, 1)
	require.NoError(t, err)
	assert.Len(t, popular, 1)
}
