package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"bpi-tracker/internal/domain"
)

const (
	defaultTitle    = "BTC Price Index (BPI) - Last Hour"
	defaultWidth    = 1500
	defaultHeight   = 900
	defaultMaxTicks = 10
)

// Options control chart rendering and output.
type Options struct {
	Title    string
	Width    int
	Height   int
	MaxTicks int
	PNGPath  string
	HTMLPath string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = defaultTitle
	}
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = defaultMaxTicks
	}
	return o
}

// WriteFiles renders the configured outputs and returns the paths written.
func WriteFiles(samples []domain.Sample, opts Options) ([]string, error) {
	if len(samples) == 0 {
		return nil, domain.ErrEmptySequence
	}

	var written []string
	if opts.PNGPath != "" {
		if err := writeFile(opts.PNGPath, func(f *os.File) error { return RenderPNG(f, samples, opts) }); err != nil {
			return written, fmt.Errorf("write png chart: %w", err)
		}
		written = append(written, opts.PNGPath)
	}
	if opts.HTMLPath != "" {
		if err := writeFile(opts.HTMLPath, func(f *os.File) error { return RenderHTML(f, samples, opts) }); err != nil {
			return written, fmt.Errorf("write html chart: %w", err)
		}
		written = append(written, opts.HTMLPath)
	}
	return written, nil
}

func writeFile(path string, render func(f *os.File) error) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
