package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpi-tracker/internal/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func minuteSamples(prices ...float64) []domain.Sample {
	base := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	out := make([]domain.Sample, 0, len(prices))
	for i, p := range prices {
		out = append(out, domain.NewSample(base.Add(time.Duration(i)*time.Minute), decimal.NewFromFloat(p)))
	}
	return out
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, minuteSamples(100.0, 250.5, 99.9), Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderPNGSingleSample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, minuteSamples(42), Options{Width: 400, Height: 300}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderPNG(&buf, nil, Options{}), domain.ErrEmptySequence)
	assert.ErrorIs(t, RenderHTML(&buf, nil, Options{}), domain.ErrEmptySequence)
}

func TestTimeTicksBounded(t *testing.T) {
	samples := minuteSamples(make([]float64, 60)...)
	x := make([]time.Time, len(samples))
	for i, s := range samples {
		x[i] = s.At
	}
	lo, hi := timeBounds(x)

	ticks := timeTicks(lo, hi, 10, time.UTC)
	require.Len(t, ticks, 10)
	assert.Equal(t, lo, ticks[0].Value)
	assert.InDelta(t, hi, ticks[9].Value, 1)
	for _, tick := range ticks {
		_, err := time.Parse(domain.ClockLayout, tick.Label)
		assert.NoError(t, err, tick.Label)
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, minuteSamples(1, 2, 3), Options{Title: "BPI test"}))
	out := buf.String()
	assert.True(t, strings.Contains(out, "echarts"))
	assert.True(t, strings.Contains(out, "BPI test"))
	assert.True(t, strings.Contains(out, echartsClockLayout), "x 轴标签应为 HH:MM:SS")
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		PNGPath:  filepath.Join(dir, "out", "btc_price.png"),
		HTMLPath: filepath.Join(dir, "out", "btc_price.html"),
	}

	written, err := WriteFiles(minuteSamples(1, 2), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{opts.PNGPath, opts.HTMLPath}, written)
	for _, p := range written {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = WriteFiles(nil, opts)
	assert.ErrorIs(t, err, domain.ErrEmptySequence)
}
