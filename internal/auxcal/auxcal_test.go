package auxcal

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkm/insar-pipeline/internal/provider"
)

func tarGz(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newTestFetcher(t *testing.T, archives map[string][]byte) (*Fetcher, *int) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		platform := filepath.Base(r.URL.Path)
		body, ok := archives[platform]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)

	registry := make(map[string]string, len(archives))
	for platform := range archives {
		registry[platform] = srv.URL + "/" + platform
	}
	f := NewFetcher(registry, provider.NewFetcher("auxcal", 5*time.Second, 1000, 0))
	return f, &hits
}

func TestLocalize_ExtractsPerPlatform(t *testing.T) {
	f, _ := newTestFetcher(t, map[string][]byte{
		"S1A": tarGz(t, map[string]string{
			"S1A_AUX_CAL_V20190228T092500_G20210104T141310.SAFE/data/s1a-aux-cal.xml": "<cal A/>",
		}),
		"S1B": tarGz(t, map[string]string{
			"S1B_AUX_CAL_V20160422T000000_G20210104T140612.SAFE/data/s1b-aux-cal.xml": "<cal B/>",
		}),
	})
	dir := t.TempDir()

	err := f.Localize(context.Background(), []string{"S1A", "S1B", "S1A"}, dir, false)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dir, "S1A",
		"S1A_AUX_CAL_V20190228T092500_G20210104T141310.SAFE", "data", "s1a-aux-cal.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<cal A/>", string(a))
	assert.DirExists(t, filepath.Join(dir, "S1B"))
}

func TestLocalize_SinglePlatformFetchedOnce(t *testing.T) {
	f, hits := newTestFetcher(t, map[string][]byte{
		"S1A": tarGz(t, map[string]string{"cal.xml": "<cal/>"}),
	})

	err := f.Localize(context.Background(), []string{"S1A", "S1A", "S1A"}, t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
}

func TestLocalize_IdempotentAcrossRuns(t *testing.T) {
	f, hits := newTestFetcher(t, map[string][]byte{
		"S1A": tarGz(t, map[string]string{"cal.xml": "<cal/>"}),
	})
	dir := t.TempDir()

	require.NoError(t, f.Localize(context.Background(), []string{"S1A"}, dir, false))
	require.NoError(t, f.Localize(context.Background(), []string{"S1A"}, dir, false))
	assert.Equal(t, 1, *hits)
}

func TestLocalize_UnknownPlatform(t *testing.T) {
	f, _ := newTestFetcher(t, map[string][]byte{})
	err := f.Localize(context.Background(), []string{"S1C"}, t.TempDir(), false)
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestLocalize_DryRunSkipsTransfer(t *testing.T) {
	f, hits := newTestFetcher(t, map[string][]byte{
		"S1A": tarGz(t, map[string]string{"cal.xml": "<cal/>"}),
	})
	dir := t.TempDir()

	require.NoError(t, f.Localize(context.Background(), []string{"S1A"}, dir, true))
	assert.Equal(t, 0, *hits)
	assert.NoDirExists(t, filepath.Join(dir, "S1A"))

	// The registry is still consulted in dry-run mode.
	err := f.Localize(context.Background(), []string{"S1B"}, dir, true)
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestLocalize_ZipArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("S1A_AUX_CAL.SAFE/data/s1a-aux-cal.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<cal zip/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	f, _ := newTestFetcher(t, map[string][]byte{"S1A": buf.Bytes()})
	dir := t.TempDir()

	require.NoError(t, f.Localize(context.Background(), []string{"S1A"}, dir, false))
	data, err := os.ReadFile(filepath.Join(dir, "S1A", "S1A_AUX_CAL.SAFE", "data", "s1a-aux-cal.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<cal zip/>", string(data))
}

func TestExtractTarGz_RejectsEscapingEntries(t *testing.T) {
	archive := tarGz(t, map[string]string{"../evil.xml": "<evil/>"})
	dir := t.TempDir()

	err := extractTarGz(archive, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "evil.xml"))
}
