package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("westbound")
	require.NoError(t, err)
	assert.Equal(t, DirectionWestbound, d)

	d, err = ParseDirection("eastbound")
	require.NoError(t, err)
	assert.Equal(t, DirectionEastbound, d)

	_, err = ParseDirection("northbound")
	var iq *InvalidQueryError
	require.ErrorAs(t, err, &iq)
}

func TestRegistryOrder(t *testing.T) {
	west := Registry(DirectionWestbound)
	east := Registry(DirectionEastbound)

	require.Len(t, west, StationCount)
	require.Len(t, east, StationCount)

	assert.Equal(t, "15th-16th & Locust", west[0])
	assert.Equal(t, "Lindenwold", west[StationCount-1])
	assert.Equal(t, "Lindenwold", east[0])
	assert.Equal(t, "15th-16th & Locust", east[StationCount-1])

	for i := range west {
		assert.Equal(t, west[i], east[StationCount-1-i])
	}
}

func TestRegistryReturnsCopy(t *testing.T) {
	first := Registry(DirectionWestbound)
	first[0] = "mutated"

	assert.Equal(t, "15th-16th & Locust", Registry(DirectionWestbound)[0])
}

func TestStationName(t *testing.T) {
	name, err := StationName(DirectionWestbound, 4)
	require.NoError(t, err)
	assert.Equal(t, "City Hall", name)

	name, err = StationName(DirectionEastbound, 0)
	require.NoError(t, err)
	assert.Equal(t, "Lindenwold", name)

	_, err = StationName(DirectionWestbound, StationCount)
	assert.Error(t, err)
	_, err = StationName(DirectionWestbound, -1)
	assert.Error(t, err)
}

func TestTripID(t *testing.T) {
	assert.Equal(t, "westbound-trip-0001", TripID(DirectionWestbound, 0))
	assert.Equal(t, "eastbound-trip-0012", TripID(DirectionEastbound, 11))
}
