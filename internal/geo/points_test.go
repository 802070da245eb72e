package geo

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

var pakistan = BoundsFromConfig(config.MapSettings{West: 60.5, East: 77.0, South: 23.5, North: 37.2})

func located(id, district, lat, lon string) types.ReconciledRecord {
	r := types.ReconciledRecord{}
	r.Identifier = id
	r.District = district
	if lat != "" {
		r.Latitude = decimal.NewNullDecimal(decimal.RequireFromString(lat))
	}
	if lon != "" {
		r.Longitude = decimal.NewNullDecimal(decimal.RequireFromString(lon))
	}
	return r
}

func TestPoints(t *testing.T) {
	records := []types.ReconciledRecord{
		located("1", "Multan", "30.19", "71.47"),
		located("2", "Lahore", "31.52", "74.35"),
		located("3", "Lahore", "", "74.35"),
		located("4", "Paris", "48.85", "2.35"),
		located("5", "Multan", "30.2", "71.5"),
		located("6", "", "24.86", "67.0"),
	}

	points := Points(records, pakistan)
	require.Len(t, points, 4)

	var order []string
	for _, p := range points {
		order = append(order, p.Identifier)
	}
	assert.Equal(t, []string{"6", "2", "1", "5"}, order)

	assert.Equal(t, Palette[0], points[0].Color)
	assert.Equal(t, Palette[1], points[1].Color)
	assert.Equal(t, Palette[2], points[2].Color)
	assert.Equal(t, points[2].Color, points[3].Color)

	assert.Equal(t, [][2]string{{"", Palette[0]}, {"Lahore", Palette[1]}, {"Multan", Palette[2]}}, Legend(points))
}

func TestPoints_BoundsAreInclusive(t *testing.T) {
	points := Points([]types.ReconciledRecord{located("edge", "X", "23.5", "77")}, pakistan)
	assert.Len(t, points, 1)
}

func TestPoints_PaletteCycles(t *testing.T) {
	var records []types.ReconciledRecord
	for i := 0; i < len(Palette)+1; i++ {
		records = append(records, located(fmt.Sprint(i), fmt.Sprintf("D%02d", i), "30", "70"))
	}

	points := Points(records, pakistan)
	require.Len(t, points, len(Palette)+1)
	assert.Equal(t, Palette[0], points[len(Palette)].Color)
}
