package chart

import (
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bpi-tracker/internal/domain"
)

// RenderPNG draws a dashed line-and-marker price chart with a time x-axis.
func RenderPNG(w io.Writer, samples []domain.Sample, opts Options) error {
	if len(samples) == 0 {
		return domain.ErrEmptySequence
	}
	opts = opts.withDefaults()

	x := make([]time.Time, len(samples))
	y := make([]float64, len(samples))
	for i, sample := range samples {
		x[i] = sample.At
		y[i] = sample.Price.InexactFloat64()
	}

	xMin, xMax := timeBounds(x)
	yMin, yMax := priceBounds(y)
	loc := samples[0].At.Location()

	grid := gochart.Style{
		StrokeColor: drawing.ColorFromHex("d0d0d0"),
		StrokeWidth: 1.0,
	}
	priceFormatter := func(v interface{}) string {
		return gochart.FloatValueFormatterWithFormat(v, "%.2f")
	}

	graph := gochart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 40, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Time",
			Range:          &gochart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks:          timeTicks(xMin, xMax, opts.MaxTicks, loc),
			TickStyle:      gochart.Style{TextRotationDegrees: 45.0},
			GridMajorStyle: grid,
		},
		YAxis: gochart.YAxis{
			Name:           "Price (USD)",
			Range:          &gochart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: priceFormatter,
			GridMajorStyle: grid,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name: "BTC/USD",
				Style: gochart.Style{
					StrokeColor:     gochart.ColorBlue,
					StrokeWidth:     2.0,
					StrokeDashArray: []float64{6.0, 4.0},
					DotColor:        gochart.ColorBlue,
					DotWidth:        4.0,
				},
				XValues: x,
				YValues: y,
			},
		},
	}

	return graph.Render(gochart.PNG, w)
}

// timeTicks spreads at most maxTicks labelled ticks evenly over [min, max].
func timeTicks(min, max float64, maxTicks int, loc *time.Location) []gochart.Tick {
	count := maxTicks
	if count < 2 {
		count = 2
	}
	step := (max - min) / float64(count-1)

	ticks := make([]gochart.Tick, 0, count)
	for i := 0; i < count; i++ {
		v := min + step*float64(i)
		label := time.Unix(0, int64(v)).In(loc).Format(domain.ClockLayout)
		ticks = append(ticks, gochart.Tick{Value: v, Label: label})
	}
	return ticks
}

// timeBounds returns the padded x range in go-chart's float representation.
// A single point is widened by 30s on each side.
func timeBounds(x []time.Time) (float64, float64) {
	lo, hi := x[0], x[0]
	for _, t := range x[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	pad := hi.Sub(lo) / 20
	if pad < 30*time.Second {
		pad = 30 * time.Second
	}
	return gochart.TimeToFloat64(lo.Add(-pad)), gochart.TimeToFloat64(hi.Add(pad))
}

func priceBounds(y []float64) (float64, float64) {
	lo, hi := y[0], y[0]
	for _, v := range y[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
