// Package downloader fetches repository files over HTTP(S) or from file:// URLs.
package downloader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the repository answers 404 or the file is absent.
var ErrNotFound = eris.New("not found")

// Downloader fetches files. The zero value uses http.DefaultClient.
type Downloader struct {
	Client    *http.Client
	UserAgent string
}

// New returns a Downloader whose requests time out after timeout.
func New(timeout time.Duration) *Downloader {
	return &Downloader{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "garnet",
	}
}

// DownloadFile fetches the content from the given URL.
// It returns the content as a byte slice or an error if the download fails
// or if the HTTP status code is not 200 OK.
func (d *Downloader) DownloadFile(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid URL %s", rawURL)
	}
	if u.Scheme == "file" {
		return readLocal(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to build request for %s", rawURL)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to perform GET request to %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "failed to download from %s: received status code 404", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("failed to download from %s: received status code %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read response body from %s", rawURL)
	}
	return body, nil
}

// DownloadTo fetches rawURL and writes it atomically to dest.
func (d *Downloader) DownloadTo(ctx context.Context, rawURL, dest string) ([]byte, error) {
	data, err := d.DownloadFile(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := WriteAtomic(dest, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteAtomic writes data to a temporary file next to dest and renames it
// into place, so readers never observe a partial file.
func WriteAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return eris.Wrapf(err, "failed to create directory for %s", dest)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return eris.Wrapf(err, "failed to create temporary file for %s", dest)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "failed to write %s", dest)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "failed to write %s", dest)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "failed to set permissions on %s", dest)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "failed to move %s into place", dest)
	}
	return nil
}

func readLocal(u *url.URL) ([]byte, error) {
	p := filepath.FromSlash(u.Path)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "failed to read %s", u.String())
		}
		return nil, eris.Wrapf(err, "failed to read %s", u.String())
	}
	return data, nil
}
