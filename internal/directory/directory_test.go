package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkets = `[
  {"address": "9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT", "deprecated": false, "name": "SOL/USDC", "programId": "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
  {"address": "7MpMwArporUHEGW7quUpkPZp5L5cHPs9eKUfKCdaPHq2", "deprecated": true, "name": "SOL/USDT", "programId": "EUqojwWA2rd19FZrzeBncJsm38Jm1hEhE3zsmX3bRc2o"}
]`

type fakeURLFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeURLFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func writeMarkets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	records, err := Load(writeMarkets(t, sampleMarkets))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "SOL/USDC", records[0].Name)
	assert.Equal(t, "9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT", records[0].Address.String())
	assert.Equal(t, consts.SerumDexV3Program, records[0].ProgramID)
	assert.False(t, records[0].Deprecated)
	assert.True(t, records[1].Deprecated)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"not json", "<html>", types.ErrDirectoryMalformed},
		{"object instead of list", `{"name":"SOL/USDC"}`, types.ErrDirectoryMalformed},
		{"bad address", `[{"address":"xyz","programId":"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin","name":"A/B","deprecated":false}]`, types.ErrDirectoryMalformed},
		{"null", `null`, types.ErrDirectoryMalformed},
		{"missing address", `[{"programId":"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin","name":"A/B","deprecated":false}]`, types.ErrDirectoryMalformed},
		{"zero program id", `[{"address":"9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT","programId":"11111111111111111111111111111111","name":"A/B","deprecated":false}]`, types.ErrDirectoryMalformed},
		{"empty name", `[{"address":"9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT","programId":"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin","name":"","deprecated":false}]`, types.ErrDirectoryMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeMarkets(t, tt.content))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, types.ErrDirectoryUnavailable))
}

func TestLoadOrFetch_Refresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "markets.json")
	f := &fakeURLFetcher{data: []byte(sampleMarkets)}

	records, err := LoadOrFetch(context.Background(), path, "https://example.invalid/markets.json", true, f)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, f.calls)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleMarkets, string(onDisk))
}

func TestLoadOrFetch_NoRefreshSkipsFetcher(t *testing.T) {
	f := &fakeURLFetcher{err: errors.New("should not be called")}
	records, err := LoadOrFetch(context.Background(), writeMarkets(t, sampleMarkets), "", false, f)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, f.calls)
}

func TestLoadOrFetch_RefreshFailureFallsBackToLocal(t *testing.T) {
	path := writeMarkets(t, sampleMarkets)

	records, err := LoadOrFetch(context.Background(), path, "u", true, &fakeURLFetcher{err: types.ErrTransportFailure})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = LoadOrFetch(context.Background(), path, "u", true, &fakeURLFetcher{data: []byte("404: Not Found")})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleMarkets, string(onDisk), "malformed download must not overwrite the local file")
}

func TestLoadOrFetch_RefreshFailureWithoutLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.json")

	_, err := LoadOrFetch(context.Background(), path, "u", true, &fakeURLFetcher{err: types.ErrTransportFailure})
	assert.True(t, errors.Is(err, types.ErrDirectoryUnavailable))
	assert.True(t, errors.Is(err, types.ErrTransportFailure))

	_, err = LoadOrFetch(context.Background(), path, "u", true, &fakeURLFetcher{data: []byte("404: Not Found")})
	assert.True(t, errors.Is(err, types.ErrDirectoryMalformed))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
