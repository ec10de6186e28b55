package timetable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patline/internal/domain"
)

func TestEncodeDecodeTripSet(t *testing.T) {
	set, rejected := BuildTrips([][]string{fullRow(0), fullRow(30)}, domain.DirectionEastbound, "2026-08-29")
	require.Empty(t, rejected)
	FlagDifferences(&set, ParseBaseline(set.Trips[0].CanonicalRow()))

	encoded := EncodeTripSet(&set)
	lines := strings.Split(strings.TrimRight(encoded, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ",false"))
	assert.True(t, strings.HasSuffix(lines[1], ",true"))

	decoded, err := DecodeTripSet(encoded, domain.DirectionEastbound, "2026-08-29")
	require.NoError(t, err)

	assert.True(t, decoded.BaselineApplied)
	require.Len(t, decoded.Trips, 2)
	assert.Equal(t, set.Trips[0].CanonicalRow(), decoded.Trips[0].CanonicalRow())
	assert.False(t, decoded.Trips[0].DiffersFromBaseline)
	assert.True(t, decoded.Trips[1].DiffersFromBaseline)
	assert.Equal(t, "eastbound-trip-0002", decoded.Trips[1].ID)
}

func TestEncodeTripSetWithoutBaseline(t *testing.T) {
	set, _ := BuildTrips([][]string{fullRow(0)}, domain.DirectionWestbound, "2026-08-29")

	encoded := EncodeTripSet(&set)

	line := strings.TrimRight(encoded, "\n")
	assert.Len(t, strings.Split(line, ","), domain.StationCount)

	decoded, err := DecodeTripSet(encoded, domain.DirectionWestbound, "2026-08-29")
	require.NoError(t, err)
	assert.False(t, decoded.BaselineApplied)
	require.Len(t, decoded.Trips, 1)
}

func TestDecodeTripSetRejectsBadRows(t *testing.T) {
	_, err := DecodeTripSet("6:15A,6:45A\n", domain.DirectionWestbound, "2026-08-29")
	assert.Error(t, err)

	set, _ := BuildTrips([][]string{fullRow(0)}, domain.DirectionWestbound, "2026-08-29")
	_, err = DecodeTripSet(set.Trips[0].CanonicalRow()+",maybe\n", domain.DirectionWestbound, "2026-08-29")
	assert.Error(t, err)
}
