package storage

import (
	"context"
	"errors"
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

func samples(prices ...float64) []domain.Sample {
	base := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	out := make([]domain.Sample, 0, len(prices))
	for i, p := range prices {
		out = append(out, domain.NewSample(base.Add(time.Duration(i)*time.Minute), decimal.NewFromFloat(p)))
	}
	return out
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "btc_price.json"))
	in := samples(100.0, 250.5, 99.9)

	require.NoError(t, store.Save(context.Background(), in))

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.True(t, in[i].At.Equal(out[i].At), "sample %d time", i)
		assert.True(t, in[i].Price.Equal(out[i].Price), "sample %d price", i)
	}
}

func TestFileStoreOneObjectPerLine(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "btc_price.json"))
	require.NoError(t, store.Save(context.Background(), samples(1, 2)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `{"time":"10:00:00","price":1`))
	assert.True(t, strings.HasSuffix(lines[1], "},"))
	assert.True(t, strings.HasPrefix(lines[2], `{"time":"10:01:00","price":2`))
	assert.Equal(t, "]", lines[3])
}

func TestFileStoreOverwritesWithLongerPrefix(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "btc_price.json"))
	all := samples(100.0, 250.5, 99.9)

	for k := 1; k <= len(all); k++ {
		require.NoError(t, store.Save(context.Background(), all[:k]))
		got, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, got, k)
		assert.True(t, got[k-1].Price.Equal(all[k-1].Price))
	}
}

func TestFileStoreEmptyAndMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "btc_price.json"))

	_, err := store.Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoSnapshot))

	require.NoError(t, store.Save(context.Background(), nil))
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewFileStore(filepath.Join(blocker, "btc_price.json"))
	err := store.Save(context.Background(), samples(1))
	assert.ErrorIs(t, err, domain.ErrPersist)
}

func TestDecodeLegacySnapshot(t *testing.T) {
	got, err := Decode([]byte("[{\"time\":\"10:00:00\",\"price\":100.0},\n{\"time\":\"10:01:00\",\"price\":250.5}\n]\n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10:01:00", got[1].Clock())
}

func TestFileStoreSaveIgnoresCancelledContext(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "btc_price.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, store.Save(ctx, samples(1, 2)))
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
