// Package download acquires SDCcc releases: it fetches a released zip from
// a URL, extracts it into a per-version storage directory and keeps an
// install manifest of everything it has unpacked.
package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosdccc/gosdccc/pkg/paths"
	"github.com/gosdccc/gosdccc/pkg/sdccc"
)

type options struct {
	storageDir string
	client     *http.Client
	proxy      string
	timeout    time.Duration
	log        *slog.Logger
}

// Option configures the download.
type Option func(*options)

// WithStorageDir overrides the storage directory.
func WithStorageDir(dir string) Option {
	return func(o *options) { o.storageDir = dir }
}

// WithHTTPClient overrides the HTTP client used for the download.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithProxy routes the download through the given proxy URL.
func WithProxy(proxyURL string) Option {
	return func(o *options) { o.proxy = proxyURL }
}

// WithTimeout aborts the download after the given duration.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger overrides the logger used for progress reporting.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{
		storageDir: paths.GetStorageDir(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		transport := http.DefaultTransport
		if o.proxy != "" {
			proxyURL, err := url.Parse(o.proxy)
			if err != nil {
				return nil, fmt.Errorf("parsing proxy url: %w", err)
			}
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
		o.client = &http.Client{Transport: transport}
	}
	return o, nil
}

// VersionFromURL extracts the release version from a download URL, taken as
// the stem of the last path element ("sdccc-9.1.0" for ".../sdccc-9.1.0.zip").
func VersionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Download fetches the release zip at rawURL, extracts it into
// `<storage>/<version>` and records it in the install manifest. It returns
// the path of the extracted SDCcc executable.
func Download(ctx context.Context, rawURL string, opts ...Option) (string, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return "", err
	}
	version := VersionFromURL(rawURL)
	if version == "" {
		return "", fmt.Errorf("unable to derive a version from url %q", rawURL)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	o.log.Info("downloading sdccc", "url", rawURL)
	archive, err := fetch(ctx, o, rawURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	dest := filepath.Join(o.storageDir, version)
	o.log.Info("extracting sdccc", "dir", dest)
	if err := extractZip(archive, dest); err != nil {
		return "", fmt.Errorf("extracting %s: %w", rawURL, err)
	}

	exe, err := sdccc.FindExecutable(dest)
	if err != nil {
		return "", err
	}
	install := Install{
		Version:     version,
		URL:         rawURL,
		Path:        exe,
		InstalledAt: time.Now().UTC(),
	}
	if err := recordInstall(o.storageDir, install); err != nil {
		return "", err
	}
	return exe, nil
}

// fetch downloads the archive into a temporary file and returns its path.
func fetch(ctx context.Context, o *options, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %s", rawURL, resp.Status)
	}

	tmp, err := os.CreateTemp("", "sdccc-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer tmp.Close()

	progress := &progressWriter{log: o.log, total: resp.ContentLength}
	if _, err := io.Copy(io.MultiWriter(tmp, progress), resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	return tmp.Name(), nil
}

// progressWriter logs download progress in MiB steps.
type progressWriter struct {
	log     *slog.Logger
	total   int64
	written int64
	lastLog int64
}

const progressStep = 16 << 20

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.written-w.lastLog >= progressStep {
		w.lastLog = w.written
		w.log.Debug("download progress",
			"mib", w.written>>20,
			"total_mib", max(w.total, 0)>>20)
	}
	return len(p), nil
}

func extractZip(src, dest string) error {
	// ErrInsecurePath is tolerated here so the traversal check below can
	// name the offending entry.
	zr, err := zip.OpenReader(src)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	root := filepath.Clean(dest)
	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, dest)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// IsInstalled reports whether an executable answering `--version` with the
// given version is present in the storage directory.
func IsInstalled(ctx context.Context, version string, opts ...Option) bool {
	o, err := buildOptions(opts)
	if err != nil {
		return false
	}
	exe, err := sdccc.FindExecutable(o.storageDir)
	if err != nil {
		return false
	}
	installed, err := sdccc.ExeVersion(ctx, exe)
	if err != nil {
		return false
	}
	return installed == version
}
