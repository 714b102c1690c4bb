// Package fetch loads GeoJSON datasets from a local directory or an HTTP base
// URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// maxDatasetBytes caps a single download.
const maxDatasetBytes = 64 << 20

func init() {
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	geojson.CustomJSONMarshaler = json
	geojson.CustomJSONUnmarshaler = json
}

// Source implements ports.DatasetSource. Names are resolved against base,
// which is either a directory or an http(s) URL.
type Source struct {
	base       string
	httpClient *http.Client
}

// New creates a Source rooted at base.
func New(base string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Source{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch loads the named dataset.
func (s *Source) Fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	loc, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, loc)
}

// Resolve returns the URL or file path of a dataset name.
func (s *Source) Resolve(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	if !isURL(s.base) {
		return filepath.Join(s.base, filepath.FromSlash(name)), nil
	}
	u, err := url.Parse(s.base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = path.Join(u.Path, name)
	return u.String(), nil
}

// Load reads a FeatureCollection from a URL or a local file path.
func (s *Source) Load(ctx context.Context, urlOrPath string) (*geojson.FeatureCollection, error) {
	var (
		data []byte
		err  error
	)
	if isURL(urlOrPath) {
		data, err = s.get(ctx, urlOrPath)
	} else {
		data, err = os.ReadFile(urlOrPath)
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, urlOrPath)
		}
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (s *Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return fc, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
