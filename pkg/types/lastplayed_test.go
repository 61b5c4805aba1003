package types

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLastPlayedNeverSortsFirst(t *testing.T) {
	never := Never()
	early := PlayedOn(day("1970-01-01"))
	late := PlayedOn(day("2024-03-03"))

	assert.Equal(t, -1, never.Compare(early))
	assert.Equal(t, 1, early.Compare(never))
	assert.Equal(t, 0, never.Compare(Never()))
	assert.Equal(t, -1, early.Compare(late))
	assert.True(t, late.After(early))
	assert.False(t, never.After(early))
}

func TestLastPlayedSortOrder(t *testing.T) {
	values := []LastPlayed{
		PlayedOn(day("2023-01-10")),
		Never(),
		PlayedOn(day("0001-01-01")),
		PlayedOn(day("2021-05-01")),
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Compare(values[j]) < 0 })

	got := make([]string, len(values))
	for i, v := range values {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"never", "0001-01-01", "2021-05-01", "2023-01-10"}, got)
}

func TestPlayedOnDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("east", 5*3600)
	a := PlayedOn(time.Date(2024, 1, 1, 23, 59, 0, 0, loc))
	b := PlayedOn(time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, "2024-01-01", a.String())
}

func TestParseLastPlayed(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "never", want: "never"},
		{in: "0", want: "never"},
		{in: " 2024-03-03 ", want: "2024-03-03"},
		{in: "2024-13-01", wantErr: true},
		{in: "", wantErr: true},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLastPlayed(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLastPlayedTextRoundTrip(t *testing.T) {
	for _, v := range []LastPlayed{Never(), PlayedOn(day("2022-06-06"))} {
		b, err := v.MarshalText()
		require.NoError(t, err)

		var back LastPlayed
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, 0, v.Compare(back))
		assert.Equal(t, v.IsNever(), back.IsNever())
	}
}
