package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"bpi-tracker/internal/domain"
)

// echartsClockLayout is domain.ClockLayout in echarts time template syntax.
const echartsClockLayout = "{HH}:{mm}:{ss}"

// RenderHTML writes an interactive echarts page with tooltip and zoom.
func RenderHTML(w io.Writer, samples []domain.Sample, o Options) error {
	if len(samples) == 0 {
		return domain.ErrEmptySequence
	}
	o = o.withDefaults()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     fmt.Sprintf("%dpx", o.Width),
			Height:    fmt.Sprintf("%dpx", o.Height),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: o.Title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "Time",
			Type:        "time",
			SplitNumber: o.MaxTicks,
			AxisLabel: &opts.AxisLabel{
				Formatter: echartsClockLayout,
				Rotate:    45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Price (USD)",
			Min:  "dataMin",
			Max:  "dataMax",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{
				Type:  "slider",
				Start: 0,
				End:   100,
			},
			opts.DataZoom{
				Type:  "inside",
				Start: 0,
				End:   100,
			},
		),
	)

	points := make([]opts.LineData, 0, len(samples))
	for _, sample := range samples {
		points = append(points, opts.LineData{Value: []interface{}{sample.At, sample.Price.InexactFloat64()}})
	}
	line.AddSeries("BTC/USD", points)

	return line.Render(w)
}
