package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	due       []uuid.UUID
	dueErr    error
	failOn    map[uuid.UUID]error
	processed []uuid.UUID
}

func (f *fakeHandler) Name() string { return "test" }

func (f *fakeHandler) Due(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	if limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeHandler) Process(ctx context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return f.failOn[id]
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(nil, nil, Options{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_SingleActiveRequiresPool(t *testing.T) {
	_, err := New(nil, &fakeHandler{}, Options{SingleActive: true})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTick_ProcessesAllDue(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	h := &fakeHandler{due: ids}
	s, err := New(nil, h, Options{})
	require.NoError(t, err)

	require.NoError(t, s.Tick(context.Background()))
	require.Equal(t, ids, h.processed)
}

func TestTick_ItemFailureDoesNotAbortBatch(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	h := &fakeHandler{
		due:    ids,
		failOn: map[uuid.UUID]error{ids[1]: errors.New("boom")},
	}
	s, err := New(nil, h, Options{})
	require.NoError(t, err)

	require.NoError(t, s.Tick(context.Background()))
	require.Equal(t, ids, h.processed)
}

func TestTick_DueErrorSurfaces(t *testing.T) {
	h := &fakeHandler{dueErr: errors.New("db down")}
	s, err := New(nil, h, Options{})
	require.NoError(t, err)

	require.Error(t, s.Tick(context.Background()))
	require.Empty(t, h.processed)
}

func TestTick_RespectsBatchSize(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	h := &fakeHandler{due: ids}
	s, err := New(nil, h, Options{BatchSize: 2})
	require.NoError(t, err)

	require.NoError(t, s.Tick(context.Background()))
	require.Len(t, h.processed, 2)
}
