package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneuz/internal/model"
)

func completed(start time.Time, d time.Duration) model.SleepSession {
	end := start.Add(d)
	return model.SleepSession{
		ID:        start.Format(time.RFC3339),
		UserID:    "u1",
		StartTime: start,
		EndTime:   &end,
		Source:    model.SourceManual,
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 4, 1, 23, 0, 0, 0, time.UTC)
	sessions := []model.SleepSession{
		completed(base, 8*time.Hour),
		completed(base.AddDate(0, 0, 1), 7*time.Hour),
		{ID: "open", UserID: "u1", StartTime: base.AddDate(0, 0, 2)},
	}

	summary := Summarize(sessions)

	assert.Equal(t, 2, summary.Count, "open session must not count")
	assert.Equal(t, 15, summary.TotalHours)
	assert.InDelta(t, 7.5, summary.AvgHours, 0.001)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 0, summary.TotalHours)
	assert.Equal(t, 0.0, summary.AvgHours)
}

func TestSummarizeRoundsAverage(t *testing.T) {
	base := time.Date(2024, 4, 1, 23, 0, 0, 0, time.UTC)
	sessions := []model.SleepSession{
		completed(base, 7*time.Hour+20*time.Minute),
		completed(base.AddDate(0, 0, 1), 8*time.Hour),
	}

	summary := Summarize(sessions)
	assert.InDelta(t, 7.7, summary.AvgHours, 0.001)
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "22:30", want: 1350},
		{in: "07:00", want: 420},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "22:30:15", want: 1350},
		{in: "22:30:xx", wantErr: true},
		{in: "22:30:61", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "22:30", FormatClock(1350))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:30", FormatClock(1470), "wraps past midnight")
	assert.Equal(t, "23:30", FormatClock(-30), "wraps backwards")
}

func TestIsLateBedtime(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2024, 4, 1, hour, minute, 0, 0, time.UTC)
	}

	late, err := IsLateBedtime(at(23, 30), "22:00", 60)
	require.NoError(t, err)
	assert.True(t, late)

	late, err = IsLateBedtime(at(22, 30), "22:00", 60)
	require.NoError(t, err)
	assert.False(t, late)

	// Past midnight still counts as late for a late-evening target.
	late, err = IsLateBedtime(at(1, 0), "22:00", 60)
	require.NoError(t, err)
	assert.True(t, late)

	// Early is never late.
	late, err = IsLateBedtime(at(21, 0), "22:00", 60)
	require.NoError(t, err)
	assert.False(t, late)

	_, err = IsLateBedtime(at(22, 0), "bad", 60)
	assert.Error(t, err)
}
