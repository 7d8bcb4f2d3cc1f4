package certificates

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ArchiveRegister(ctx context.Context, month time.Time, recipients []string) (string, error) {
	args := m.Called(ctx, month, recipients)
	return args.String(0), args.Error(1)
}

func TestRegisterScheduler_RunOnceArchivesPreviousMonth(t *testing.T) {
	archiver := new(MockArchiver)
	core, logs := observer.New(zap.InfoLevel)

	s, err := NewRegisterScheduler(archiver, SchedulerConfig{Recipients: []string{"a@example.com"}}, zap.New(core))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC) }

	february := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	archiver.On("ArchiveRegister", mock.Anything, february, []string{"a@example.com"}).
		Return("registers/2025-02.xlsx", nil)

	key, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "registers/2025-02.xlsx", key)
	archiver.AssertExpectations(t)

	entries := logs.FilterMessage("Register archived").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-02", entries[0].ContextMap()["month"])
}

func TestRegisterScheduler_JanuaryRollsBackToDecember(t *testing.T) {
	archiver := new(MockArchiver)
	s, err := NewRegisterScheduler(archiver, SchedulerConfig{}, zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC) }

	december := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	archiver.On("ArchiveRegister", mock.Anything, december, []string(nil)).Return("", errors.New("bucket missing"))

	_, err = s.RunOnce(context.Background())
	assert.EqualError(t, err, "bucket missing")
}

func TestRegisterScheduler_InvalidConfig(t *testing.T) {
	_, err := NewRegisterScheduler(new(MockArchiver), SchedulerConfig{Schedule: "every tuesday"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewRegisterScheduler(new(MockArchiver), SchedulerConfig{Timezone: "Mars/Olympus"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRegisterScheduler_NextRun(t *testing.T) {
	s, err := NewRegisterScheduler(new(MockArchiver), SchedulerConfig{}, zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2025, 2, 1, 3, 0, 0, 0, time.UTC), s.NextRun())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	s.Stop()
}

func TestRegisterScheduler_RunMonthMatchesScheduledPeriod(t *testing.T) {
	archiver := new(MockArchiver)
	s, err := NewRegisterScheduler(archiver, SchedulerConfig{Timezone: "America/Sao_Paulo"}, zap.NewNop())
	require.NoError(t, err)
	// 2025-02-01 03:00 in Sao Paulo
	s.now = func() time.Time { return time.Date(2025, 2, 1, 6, 0, 0, 0, time.UTC) }

	januaryStart := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	var months []time.Time
	archiver.On("ArchiveRegister", mock.Anything, mock.MatchedBy(func(m time.Time) bool {
		return m.Equal(januaryStart) && m.Location().String() == "America/Sao_Paulo"
	}), []string(nil)).Run(func(args mock.Arguments) {
		months = append(months, args.Get(1).(time.Time))
	}).Return("registers/2025-01.xlsx", nil).Twice()

	key, err := s.RunMonth(context.Background(), "2025-01")
	require.NoError(t, err)
	assert.Equal(t, "registers/2025-01.xlsx", key)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	archiver.AssertExpectations(t)

	require.Len(t, months, 2)
	from, to := monthRange(months[0])
	assert.Equal(t, januaryStart, from.UTC())
	assert.Equal(t, time.Date(2025, 2, 1, 3, 0, 0, 0, time.UTC), to.UTC())
}

func TestRegisterScheduler_RunMonthRejectsBadMonth(t *testing.T) {
	archiver := new(MockArchiver)
	s, err := NewRegisterScheduler(archiver, SchedulerConfig{}, zap.NewNop())
	require.NoError(t, err)

	for _, month := range []string{"2025-13", "01/2025", ""} {
		_, err := s.RunMonth(context.Background(), month)
		assert.ErrorIs(t, err, ErrInvalidInput, month)
	}
	archiver.AssertNotCalled(t, "ArchiveRegister", mock.Anything, mock.Anything, mock.Anything)
}
