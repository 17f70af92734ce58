package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/oshokin/love-distributor/internal/config"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/progress"
	"github.com/oshokin/love-distributor/internal/version"
)

// ExecutableMode is applied to downloaded programs that must be run.
const ExecutableMode os.FileMode = 0o755

var (
	errBadHTTPStatus   = errors.New("unexpected http status")
	errTruncated       = errors.New("incomplete response body")
	errInsecureURL     = errors.New("download url must use https")
	errUnsupportedPair = errors.New("no runtime release for platform and arch")
)

// Payload locates the files downloaded for one run.
type Payload struct {
	// Runtime is the LÖVE AppImage (linux) or zip (windows, macos).
	Runtime string
	// Helper is appimagetool on linux and empty elsewhere.
	Helper string
}

// Fetcher downloads runtime releases over HTTPS.
type Fetcher struct {
	// client performs the requests.
	client *http.Client
	// baseURL is the release root, without a trailing slash.
	baseURL string
	// helperURL is the pinned appimagetool release.
	helperURL string
	// timeout bounds every download.
	timeout time.Duration
	// progressOut receives a status line when it is a terminal.
	progressOut *os.File
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default download client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithProgress draws download progress on out when it is a terminal.
func WithProgress(out *os.File) Option {
	return func(f *Fetcher) {
		f.progressOut = out
	}
}

// New creates a Fetcher for the release hosts configured in cfg.
func New(cfg *config.Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    newHTTPClient(),
		baseURL:   cfg.RuntimeBaseURL,
		helperURL: cfg.AppImageToolURL,
		timeout:   cfg.DownloadTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// RuntimeSuffix returns the release asset suffix for platform and arch.
func RuntimeSuffix(platform distribution.Platform, arch distribution.Arch) (string, error) {
	switch {
	case platform == distribution.PlatformLinux && arch == distribution.ArchX64:
		return "x86_64.AppImage", nil
	case platform == distribution.PlatformWindows && arch == distribution.ArchX86:
		return "win32.zip", nil
	case platform == distribution.PlatformWindows && arch == distribution.ArchX64:
		return "win64.zip", nil
	case platform == distribution.PlatformMacOS && arch == distribution.ArchX64:
		return "macos.zip", nil
	default:
		return "", fmt.Errorf("%w: %s/%s: %w", distribution.ErrValidation, platform, arch, errUnsupportedPair)
	}
}

// RuntimeURL builds "{base}/{version}/love-{version}-{suffix}".
func RuntimeURL(baseURL, runtimeVersion string, platform distribution.Platform, arch distribution.Arch) (string, error) {
	suffix, err := RuntimeSuffix(platform, arch)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url: %w", distribution.ErrValidation, err)
	}

	u.Path = path.Join(u.Path, runtimeVersion, "love-"+runtimeVersion+"-"+suffix)

	return u.String(), nil
}

// Fetch downloads the runtime for the triple into dir. On linux it also
// downloads appimagetool and marks both files executable.
func (f *Fetcher) Fetch(
	ctx context.Context,
	dir string,
	platform distribution.Platform,
	arch distribution.Arch,
	runtimeVersion string,
) (*Payload, error) {
	runtimeURL, err := RuntimeURL(f.baseURL, runtimeVersion, platform, arch)
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		Runtime: filepath.Join(dir, path.Base(runtimeURL)),
	}

	if err = f.download(ctx, runtimeURL, payload.Runtime); err != nil {
		return nil, err
	}

	if platform != distribution.PlatformLinux {
		return payload, nil
	}

	helperURL, err := url.Parse(f.helperURL)
	if err != nil {
		return nil, fmt.Errorf("%w: helper url: %w", distribution.ErrValidation, err)
	}

	payload.Helper = filepath.Join(dir, path.Base(helperURL.Path))

	if err = f.download(ctx, f.helperURL, payload.Helper); err != nil {
		return nil, err
	}

	for _, p := range []string{payload.Runtime, payload.Helper} {
		if err = os.Chmod(p, ExecutableMode); err != nil {
			return nil, fmt.Errorf("mark %s executable: %w", p, err)
		}
	}

	return payload, nil
}

// download streams rawURL into dest.
func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return fmt.Errorf("%w: %s: %w", distribution.ErrDownload, rawURL, errInsecureURL)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	logger.InfoKV(ctx, "Downloading", "url", u.Redacted(), "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", distribution.ErrDownload, rawURL, err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", distribution.ErrDownload, rawURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s, %s: %w", distribution.ErrDownload, rawURL, resp.Status, errBadHTTPStatus)
	}

	written, err := f.save(resp, dest)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", distribution.ErrDownload, rawURL, err)
	}

	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return fmt.Errorf("%w: %s: got %d of %d bytes: %w",
			distribution.ErrDownload, rawURL, written, resp.ContentLength, errTruncated)
	}

	logger.DebugKV(ctx, "Downloaded", "path", dest, "bytes", written)

	return nil
}

// save copies the response body into dest, drawing progress when enabled.
func (f *Fetcher) save(resp *http.Response, dest string) (int64, error) {
	out, err := os.Create(filepath.Clean(dest))
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	defer func() {
		_ = out.Close()
	}()

	var w io.Writer = out

	if progress.Enabled(f.progressOut) {
		pw := progress.NewWriter(out, resp.ContentLength, f.progressOut, filepath.Base(dest))
		defer pw.Finish()

		w = pw
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("write file: %w", err)
	}

	if err = out.Sync(); err != nil {
		return written, fmt.Errorf("sync file: %w", err)
	}

	return written, nil
}
