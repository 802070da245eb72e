// =============================================================================
// Withdrawal Reconciler - Map Points
// =============================================================================
//
// This module selects the device locations to plot. Records without both
// coordinates or outside the configured bounds are dropped, and every
// district gets a colour from a fixed palette.
//
// =============================================================================

package geo

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the cycle of district colours.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b",
	"#e377c2", "#7f7f7f", "#bcbd22", "#17becf", "#aec7e8", "#ffbb78",
}

// Point is a device location ready for plotting.
type Point struct {
	Identifier string
	District   string
	Latitude   decimal.Decimal
	Longitude  decimal.Decimal
	Accuracy   decimal.NullDecimal
	Color      string
}

// =============================================================================
// BOUNDS
// =============================================================================

// Bounds is a latitude/longitude box, inclusive.
type Bounds struct {
	West, East, South, North decimal.Decimal
}

// BoundsFromConfig converts the map settings.
func BoundsFromConfig(m config.MapSettings) Bounds {
	return Bounds{
		West:  decimal.NewFromFloat(m.West),
		East:  decimal.NewFromFloat(m.East),
		South: decimal.NewFromFloat(m.South),
		North: decimal.NewFromFloat(m.North),
	}
}

// Contains reports whether the coordinate is inside b.
func (b Bounds) Contains(lat, lon decimal.Decimal) bool {
	return !lat.LessThan(b.South) && !lat.GreaterThan(b.North) &&
		!lon.LessThan(b.West) && !lon.GreaterThan(b.East)
}

// =============================================================================
// POINT SELECTION
// =============================================================================

// Points selects the records with both coordinates inside bounds, sorted by
// district (stable within a district). Each district gets the next palette
// colour in first-seen order of the sorted points.
func Points(records []types.ReconciledRecord, bounds Bounds) []Point {
	var points []Point
	for _, r := range records {
		if !r.Latitude.Valid || !r.Longitude.Valid {
			continue
		}
		if !bounds.Contains(r.Latitude.Decimal, r.Longitude.Decimal) {
			continue
		}
		points = append(points, Point{
			Identifier: r.Identifier,
			District:   r.District,
			Latitude:   r.Latitude.Decimal,
			Longitude:  r.Longitude.Decimal,
			Accuracy:   r.Accuracy,
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].District < points[j].District })

	colors := map[string]string{}
	for i := range points {
		d := points[i].District
		c, ok := colors[d]
		if !ok {
			c = Palette[len(colors)%len(Palette)]
			colors[d] = c
		}
		points[i].Color = c
	}
	return points
}

// Legend returns district to colour in sorted district order.
func Legend(points []Point) [][2]string {
	var out [][2]string
	seen := map[string]bool{}
	for _, p := range points {
		if seen[p.District] {
			continue
		}
		seen[p.District] = true
		out = append(out, [2]string{p.District, p.Color})
	}
	return out
}
