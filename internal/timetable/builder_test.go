package timetable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patline/internal/domain"
)

// fullRow builds a complete row of PM times minutes apart, starting at the
// given minute past one o'clock.
func fullRow(startMinute int) []string {
	fields := make([]string, domain.StationCount)
	for i := range fields {
		fields[i] = fmt.Sprintf("1:%02dP", startMinute+i)
	}
	return fields
}

func TestBuildTripsWestbound(t *testing.T) {
	rows := [][]string{fullRow(0), fullRow(30)}

	set, rejected := BuildTrips(rows, domain.DirectionWestbound, "2026-08-29")

	require.Empty(t, rejected)
	require.Len(t, set.Trips, 2)
	assert.Equal(t, "2026-08-29", set.Date)
	assert.Equal(t, domain.DirectionWestbound, set.Direction)

	assert.Equal(t, "westbound-trip-0001", set.Trips[0].ID)
	assert.Equal(t, 0, set.Trips[0].Index)
	assert.Equal(t, "1:00P", set.Trips[0].Times[0].String())
	assert.Equal(t, "1:13P", set.Trips[0].Times[13].String())
	assert.Equal(t, "1:30P", set.Trips[1].Times[0].String())
}

func TestBuildTripsEastboundReversesRows(t *testing.T) {
	// The document prints every row in the same physical station order, so
	// an eastbound row reads backwards relative to its registry.
	set, rejected := BuildTrips([][]string{fullRow(0)}, domain.DirectionEastbound, "2026-08-29")

	require.Empty(t, rejected)
	require.Len(t, set.Trips, 1)
	assert.Equal(t, "1:13P", set.Trips[0].Times[0].String())
	assert.Equal(t, "1:00P", set.Trips[0].Times[13].String())
}

func TestBuildTripsPadsShortWestboundRow(t *testing.T) {
	short := fullRow(0)[:10]

	set, rejected := BuildTrips([][]string{short}, domain.DirectionWestbound, "2026-08-29")

	require.Empty(t, rejected)
	require.Len(t, set.Trips, 1)
	trip := set.Trips[0]
	assert.Equal(t, "1:09P", trip.Times[9].String())
	for i := 10; i < domain.StationCount; i++ {
		assert.True(t, trip.Times[i].Closed, "index %d", i)
	}
}

func TestBuildTripsPadsShortEastboundRow(t *testing.T) {
	// A truncated row lost its rightmost printed fields; after reversal
	// those are the leading registry entries, so the padding goes in front.
	short := fullRow(0)[:10]

	set, rejected := BuildTrips([][]string{short}, domain.DirectionEastbound, "2026-08-29")

	require.Empty(t, rejected)
	require.Len(t, set.Trips, 1)
	trip := set.Trips[0]
	for i := 0; i < 4; i++ {
		assert.True(t, trip.Times[i].Closed, "index %d", i)
	}
	assert.Equal(t, "1:09P", trip.Times[4].String())
	assert.Equal(t, "1:00P", trip.Times[13].String())
}

func TestBuildTripsRejectsBadRowIndividually(t *testing.T) {
	bad := fullRow(30)
	bad[6] = "garbage"
	rows := [][]string{fullRow(0), bad, fullRow(45)}

	set, rejected := BuildTrips(rows, domain.DirectionWestbound, "2026-08-29")

	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0], domain.ErrInvalidTimeFormat)

	require.Len(t, set.Trips, 2)
	assert.Equal(t, "1:00P", set.Trips[0].Times[0].String())
	assert.Equal(t, "1:45P", set.Trips[1].Times[0].String())
	assert.Equal(t, 1, set.Trips[1].Index, "surviving trips keep contiguous indices")
	assert.Equal(t, "westbound-trip-0002", set.Trips[1].ID)
}

func TestBuildTripsDoesNotMutateInput(t *testing.T) {
	rows := [][]string{fullRow(0)}

	_, _ = BuildTrips(rows, domain.DirectionEastbound, "2026-08-29")

	assert.Equal(t, "1:00P", rows[0][0])
}
