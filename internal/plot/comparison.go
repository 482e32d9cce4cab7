package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	canvasWidth  = 1600
	canvasHeight = 800

	pointDotWidth   = 1.5
	overlayDotWidth = 7
	rangePadding    = 0.05
)

// ErrNothingToPlot is returned when there are no points to draw.
var ErrNothingToPlot = errors.New("no points to plot")

// Light to dark blue scale used for the density of background points.
var (
	densityLow  = drawing.ColorFromHex("deebf7")
	densityHigh = drawing.ColorFromHex("08306b")
	dbscanColor = drawing.ColorFromHex("e41a1c")
	kmeansColor = drawing.ColorFromHex("1f4eb4")
)

// Comparison is the content of the DBSCAN versus k-means figure. Points are
// standardized feature rows (latitude, longitude, density), summaries are in
// the same units.
type Comparison struct {
	Points [][]float64
	DBSCAN []models.ClusterSummary
	KMeans []models.ClusterSummary
}

// Render draws the comparison as a PNG scatter plot with longitude on the
// x axis and latitude on the y axis.
func Render(w io.Writer, cmp Comparison) error {
	if len(cmp.Points) == 0 {
		return ErrNothingToPlot
	}

	xs := make([]float64, len(cmp.Points))
	ys := make([]float64, len(cmp.Points))
	density := make([]float64, len(cmp.Points))
	for i, p := range cmp.Points {
		ys[i], xs[i], density[i] = p[0], p[1], p[2]
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Potential Stops",
			Style: chart.Style{
				StrokeWidth:      chart.Disabled,
				DotWidth:         pointDotWidth,
				DotColorProvider: densityColors(density),
			},
			XValues: xs,
			YValues: ys,
		},
	}
	xr, yr := newBounds(xs), newBounds(ys)

	for _, layer := range []struct {
		name  string
		color drawing.Color
		rows  []models.ClusterSummary
	}{
		{name: "DBSCAN Optimized Stops", color: dbscanColor, rows: cmp.DBSCAN},
		{name: "KMeans Optimized Stops", color: kmeansColor, rows: cmp.KMeans},
	} {
		// go-chart refuses series without values
		if len(layer.rows) == 0 {
			continue
		}
		lon := make([]float64, len(layer.rows))
		lat := make([]float64, len(layer.rows))
		for i, row := range layer.rows {
			lon[i], lat[i] = row.Longitude, row.Latitude
		}
		xr.extend(lon)
		yr.extend(lat)

		series = append(series, chart.ContinuousSeries{
			Name: layer.name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    overlayDotWidth,
				DotColor:    layer.color,
			},
			XValues: lon,
			YValues: lat,
		})
	}

	ch := chart.Chart{
		Title:      "Optimized Bus Stop Locations: DBSCAN vs KMeans",
		Width:      canvasWidth,
		Height:     canvasHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: "Longitude (Standardized)", Range: xr.continuous()},
		YAxis:      chart.YAxis{Name: "Latitude (Standardized)", Range: yr.continuous()},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render comparison chart: %w", err)
	}
	return nil
}

// densityColors maps each point's density onto the blue scale.
func densityColors(density []float64) chart.DotColorProvider {
	b := newBounds(density)
	span := b.max - b.min

	return func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
		t := 0.0
		if span > 0 && index < len(density) {
			t = (density[index] - b.min) / span
		}
		return blend(densityLow, densityHigh, t)
	}
}

func blend(from, to drawing.Color, t float64) drawing.Color {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return drawing.Color{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B), A: 255}
}

type bounds struct {
	min, max float64
}

func newBounds(values []float64) *bounds {
	b := &bounds{min: math.Inf(1), max: math.Inf(-1)}
	b.extend(values)
	return b
}

func (b *bounds) extend(values []float64) {
	for _, v := range values {
		b.min = math.Min(b.min, v)
		b.max = math.Max(b.max, v)
	}
}

// continuous pads the bounds so that edge dots stay on the canvas and a
// single value still yields a usable range.
func (b *bounds) continuous() *chart.ContinuousRange {
	pad := (b.max - b.min) * rangePadding
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: b.min - pad, Max: b.max + pad}
}
