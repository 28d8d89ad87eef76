// Package photos downloads observation photos into the local photo cache.
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/metrics"
)

// DefaultExtension is used when a usable extension cannot be derived from the URL.
const DefaultExtension = "jpg"

const maxExtensionLen = 4

// UpgradeURL rewrites a served image URL to its highest-resolution variant.
func UpgradeURL(photoURL string) string {
	return strings.ReplaceAll(photoURL, "square", "original")
}

// Extension derives the file extension from the final path segment of
// photoURL, ignoring any query string.
func Extension(photoURL string) string {
	ext := photoURL
	if i := strings.LastIndexByte(photoURL, '.'); i >= 0 {
		ext = photoURL[i+1:]
	}
	ext, _, _ = strings.Cut(ext, "?")
	if ext == "" || strings.Contains(ext, "/") || len(ext) > maxExtensionLen {
		return DefaultExtension
	}
	return ext
}

// Filename is the cache name of the index-th (1-based) photo of an observation.
func Filename(observationID int64, index int, photoURL string) string {
	return strconv.FormatInt(observationID, 10) + "_" + strconv.Itoa(index) + "." + Extension(photoURL)
}

// Result describes a satisfied acquisition.
type Result struct {
	Filename string
	// Cached is true when the file was already present and nothing was fetched.
	Cached bool
	Bytes  int
}

// Config wires an Acquirer.
type Config struct {
	Fetcher harvest.Fetcher
	Store   harvest.BlobStore
	Logger  *zap.Logger
}

// Acquirer downloads photos once into a BlobStore.
type Acquirer struct {
	fetcher harvest.Fetcher
	store   harvest.BlobStore
	logger  *zap.Logger
}

// New validates cfg and returns an Acquirer.
func New(cfg Config) (*Acquirer, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("photo acquirer requires a fetcher")
	}
	if cfg.Store == nil {
		return nil, errors.New("photo acquirer requires a blob store")
	}
	return &Acquirer{
		fetcher: cfg.Fetcher,
		store:   cfg.Store,
		logger:  logging.OrNop(cfg.Logger),
	}, nil
}

// Acquire stores the photo at photoURL under filename unless a file with
// that name already exists. Existing files are never re-validated.
func (a *Acquirer) Acquire(ctx context.Context, photoURL, filename string) (Result, error) {
	exists, err := a.store.Exists(ctx, filename)
	if err != nil {
		metrics.ObservePhoto(photoURL, metrics.PhotoFailed, 0)
		return Result{}, fmt.Errorf("check photo cache for %s: %w", filename, err)
	}
	if exists {
		a.logger.Debug("photo already cached", zap.String("filename", filename))
		metrics.ObservePhoto(photoURL, metrics.PhotoCached, 0)
		return Result{Filename: filename, Cached: true}, nil
	}

	resp, err := a.fetcher.Fetch(ctx, harvest.FetchRequest{URL: photoURL})
	if err == nil && resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err != nil {
		a.logger.Warn("photo download failed",
			zap.String("filename", filename),
			zap.String("url", photoURL),
			zap.Error(err))
		metrics.ObservePhoto(photoURL, metrics.PhotoFailed, 0)
		return Result{}, fmt.Errorf("download photo %s: %w", filename, err)
	}

	if _, err := a.store.PutObject(ctx, filename, contentType(resp, filename), bytes.NewReader(resp.Body)); err != nil {
		metrics.ObservePhoto(photoURL, metrics.PhotoFailed, 0)
		return Result{}, fmt.Errorf("store photo %s: %w", filename, err)
	}
	metrics.ObservePhoto(photoURL, metrics.PhotoDownloaded, len(resp.Body))
	return Result{Filename: filename, Bytes: len(resp.Body)}, nil
}

func contentType(resp harvest.FetchResponse, filename string) string {
	if ct := resp.Headers.Get("Content-Type"); ct != "" {
		return ct
	}
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		if ct := mime.TypeByExtension(filename[i:]); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}
