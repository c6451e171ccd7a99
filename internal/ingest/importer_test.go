package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// mockTaskRecordRepo records BulkInsert calls; other methods are not used by the importer
type mockTaskRecordRepo struct {
	bulkInsertErr   error
	bulkInsertCalls [][]*models.TaskRecord
	replaceFlags    []bool
}

func (m *mockTaskRecordRepo) BulkInsert(_ context.Context, records []*models.TaskRecord, replace bool) (int, error) {
	m.bulkInsertCalls = append(m.bulkInsertCalls, records)
	m.replaceFlags = append(m.replaceFlags, replace)
	if m.bulkInsertErr != nil {
		return 0, m.bulkInsertErr
	}
	return len(records), nil
}

func (m *mockTaskRecordRepo) ListAll(context.Context) ([]*models.TaskRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskRecordRepo) TitlesContaining(context.Context, string, models.Language) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskRecordRepo) TasksByTitle(context.Context, string, models.Language) ([]models.TaskShare, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskRecordRepo) Count(context.Context) (int, error) {
	return 0, errors.New("not implemented")
}

func TestImporter_Import(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRecordRepo{}
	imp := NewImporter(repo, nil)

	res, err := imp.Import(context.Background(), strings.NewReader(csvOf(bakerRow)), Options{Replace: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	require.Len(t, repo.bulkInsertCalls, 1)
	assert.Equal(t, []bool{true}, repo.replaceFlags)
}

func TestImporter_ParseFailureWritesNothing(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRecordRepo{}
	imp := NewImporter(repo, nil)

	_, err := imp.Import(context.Background(), strings.NewReader(csvOf(bakerRow, "bad,row")), Options{})
	require.Error(t, err)
	assert.Empty(t, repo.bulkInsertCalls)
}

func TestImporter_StoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("disk full")
	repo := &mockTaskRecordRepo{bulkInsertErr: storeErr}
	imp := NewImporter(repo, nil)

	_, err := imp.Import(context.Background(), strings.NewReader(csvOf(bakerRow)), Options{})
	assert.ErrorIs(t, err, storeErr)
}
