package download

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	body string
	mode os.FileMode
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		if e.mode != 0 {
			header.SetMode(e.mode)
		}
		f, err := w.CreateHeader(header)
		require.NoError(t, err)
		_, err = f.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func serveZip(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func releaseZip(t *testing.T) []byte {
	return buildZip(t, []zipEntry{
		{name: "sdccc-9.1.0.exe", body: "#!/bin/sh\necho 9.1.0\n", mode: 0o755},
		{name: "configuration/config.toml", body: "[sdc]\n"},
		{name: "configuration/test_configuration.toml", body: "[BICEPS]\nR0021 = true\n"},
	})
}

func TestVersionFromURL(t *testing.T) {
	assert.Equal(t, "sdccc-9.1.0",
		VersionFromURL("https://example.com/releases/download/v9.1.0/sdccc-9.1.0.zip"))
	assert.Equal(t, "sdccc-9.1.0", VersionFromURL("https://example.com/sdccc-9.1.0.zip?token=abc"))
	assert.Empty(t, VersionFromURL("https://example.com/"))
	assert.Empty(t, VersionFromURL("https://example.com"))
	assert.Empty(t, VersionFromURL("::not-a-url"))
}

func TestDownload(t *testing.T) {
	srv := serveZip(t, releaseZip(t))
	storage := t.TempDir()

	exe, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(storage, "sdccc-9.1.0", "sdccc-9.1.0.exe"), exe)
	assert.FileExists(t, filepath.Join(storage, "sdccc-9.1.0", "configuration", "config.toml"))

	installs, err := Installed(WithStorageDir(storage))
	require.NoError(t, err)
	require.Len(t, installs, 1)
	assert.Equal(t, "sdccc-9.1.0", installs[0].Version)
	assert.Equal(t, exe, installs[0].Path)
	assert.WithinDuration(t, time.Now(), installs[0].InstalledAt, time.Minute)
}

func TestDownloadReinstallReplacesManifestEntry(t *testing.T) {
	srv := serveZip(t, releaseZip(t))
	storage := t.TempDir()

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)
	_, err = Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)

	installs, err := Installed(WithStorageDir(storage))
	require.NoError(t, err)
	assert.Len(t, installs, 1)
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(t.TempDir()))
	require.ErrorContains(t, err, "unexpected status")
}

func TestDownloadUnversionedURL(t *testing.T) {
	_, err := Download(context.Background(), "https://example.com/", WithStorageDir(t.TempDir()))
	require.ErrorContains(t, err, "unable to derive a version")
}

func TestDownloadRejectsZipSlip(t *testing.T) {
	archive := buildZip(t, []zipEntry{
		{name: "../evil.sh", body: "#!/bin/sh\n"},
	})
	srv := serveZip(t, archive)
	storage := t.TempDir()

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.ErrorContains(t, err, "escapes")
	assert.NoFileExists(t, filepath.Join(storage, "evil.sh"))
}

func TestDownloadNoExecutableInArchive(t *testing.T) {
	archive := buildZip(t, []zipEntry{
		{name: "configuration/config.toml", body: "[sdc]\n"},
	})
	srv := serveZip(t, archive)

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(t.TempDir()))
	require.ErrorContains(t, err, "no sdccc executable")
}

func TestUninstall(t *testing.T) {
	srv := serveZip(t, releaseZip(t))
	storage := t.TempDir()

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)

	require.NoError(t, Uninstall("sdccc-9.1.0", WithStorageDir(storage)))
	assert.NoDirExists(t, filepath.Join(storage, "sdccc-9.1.0"))

	installs, err := Installed(WithStorageDir(storage))
	require.NoError(t, err)
	assert.Empty(t, installs)

	require.ErrorContains(t, Uninstall("sdccc-9.1.0", WithStorageDir(storage)), "not installed")
}

func TestUninstallAll(t *testing.T) {
	srv := serveZip(t, releaseZip(t))
	storage := t.TempDir()

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)

	require.NoError(t, UninstallAll(WithStorageDir(storage)))
	assert.NoDirExists(t, storage)
}

func TestIsInstalled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub executables are shell scripts")
	}
	srv := serveZip(t, releaseZip(t))
	storage := t.TempDir()

	_, err := Download(context.Background(), srv.URL+"/sdccc-9.1.0.zip", WithStorageDir(storage))
	require.NoError(t, err)

	assert.True(t, IsInstalled(context.Background(), "9.1.0", WithStorageDir(storage)))
	assert.False(t, IsInstalled(context.Background(), "8.0.0", WithStorageDir(storage)))
	assert.False(t, IsInstalled(context.Background(), "9.1.0", WithStorageDir(t.TempDir())))
}

func TestDownloadProxyOptionRejectsBadURL(t *testing.T) {
	_, err := Download(context.Background(), "https://example.com/sdccc-9.1.0.zip",
		WithStorageDir(t.TempDir()), WithProxy("://bad"))
	require.ErrorContains(t, err, "parsing proxy url")
}
