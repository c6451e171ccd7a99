package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/models"
)

type mockTitleSearcher struct {
	titles []string
	err    error
	calls  []string
}

func (m *mockTitleSearcher) TitlesContaining(_ context.Context, keyword string, _ models.Language) ([]string, error) {
	m.calls = append(m.calls, keyword)
	return m.titles, m.err
}

func TestSearchTitles_EmptyKeywordSkipsStore(t *testing.T) {
	t.Parallel()

	store := &mockTitleSearcher{titles: []string{"Bakers"}}
	got, err := NewIndex(store).SearchTitles(context.Background(), "", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Empty(t, store.calls)
}

func TestSearchTitles_InvalidLanguage(t *testing.T) {
	t.Parallel()

	store := &mockTitleSearcher{}
	_, err := NewIndex(store).SearchTitles(context.Background(), "Bak", models.Language("fr"))
	assert.Error(t, err)
	assert.Empty(t, store.calls)
}

func TestSearchTitles_StoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection reset")
	_, err := NewIndex(&mockTitleSearcher{err: storeErr}).SearchTitles(context.Background(), "Bak", models.LanguageEnglish)
	assert.ErrorIs(t, err, storeErr)
}

func TestSearchTitles_LocaleIsolation(t *testing.T) {
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "search.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewTaskRecordRepository(db)
	_, err = repo.BulkInsert(context.Background(), []*models.TaskRecord{
		{OccupationCode: "51-3011.00", Title: "Bakers", TitleCN: "面包师", TaskID: 1, Task: "Mix", TaskCN: "和面", TaskType: "Core", Date: "07/2014", DomainSource: "Incumbent", Percentage: 30},
		{OccupationCode: "35-1011.00", Title: "Chefs and Head Cooks", TitleCN: "厨师长", TaskID: 2, Task: "Plan", TaskCN: "计划", TaskType: "Core", Date: "07/2014", DomainSource: "Incumbent", Percentage: 10},
		{OccupationCode: "51-3011.00", Title: "Bakers", TitleCN: "面包师", TaskID: 3, Task: "Bake", TaskCN: "烘焙", TaskType: "Core", Date: "07/2014", DomainSource: "Incumbent", Percentage: 0},
	}, false)
	require.NoError(t, err)

	idx := NewIndex(repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		keyword string
		lang    models.Language
		want    []string
	}{
		{name: "english hit", keyword: "Bak", lang: models.LanguageEnglish, want: []string{"Bakers"}},
		{name: "english keyword on chinese column", keyword: "Bak", lang: models.LanguageChinese, want: []string{}},
		{name: "chinese hit", keyword: "面包", lang: models.LanguageChinese, want: []string{"面包师"}},
		{name: "chinese keyword on english column", keyword: "面包", lang: models.LanguageEnglish, want: []string{}},
		{name: "case sensitive", keyword: "bakers", lang: models.LanguageEnglish, want: []string{}},
		{name: "distinct in storage order", keyword: "s", lang: models.LanguageEnglish, want: []string{"Bakers", "Chefs and Head Cooks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.SearchTitles(ctx, tt.keyword, tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
