// Package cache stores downloaded wallpapers under the pictures directory.
// A file at the derived path is written once and never rewritten; its presence
// is what marks an image as downloaded.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

const (
	// Subdir is the directory below the pictures root holding cached images
	Subdir = "Bing"

	// length of the fixed "/th?id=" head of every feed base name
	baseNamePrefixLen = 7
	fileExt           = ".jpg"
)

var (
	// ErrInvalidURL is returned when the download URL cannot be composed
	ErrInvalidURL = errors.New("invalid download URL")

	// ErrInvalidBaseName is returned when no safe filename can be derived
	ErrInvalidBaseName = errors.New("invalid image base name")
)

// Cache implements domain.ImageCache on the local filesystem
type Cache struct {
	logger   *zap.Logger
	fetcher  domain.Fetcher
	verifier domain.ImageVerifier
	root     string
	host     string
}

// New creates a cache rooted at the configured pictures directory
func New(logger *zap.Logger, fetcher domain.Fetcher, verifier domain.ImageVerifier, cfg domain.Config) *Cache {
	return &Cache{
		logger:   logger,
		fetcher:  fetcher,
		verifier: verifier,
		root:     cfg.GetPicturesDir(),
		host:     cfg.GetHost(),
	}
}

// Dir returns the directory cached images are written to
func (c *Cache) Dir() string {
	return filepath.Join(c.root, Subdir)
}

// Path returns the cache location for desc without touching the disk
func (c *Cache) Path(desc domain.ImageDescriptor) (string, error) {
	if len(desc.BaseName) <= baseNamePrefixLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseName, desc.BaseName)
	}

	name := desc.BaseName[baseNamePrefixLen:]
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseName, desc.BaseName)
	}

	return filepath.Join(c.Dir(), name+fileExt), nil
}

// Download returns the cached path of desc, fetching the image only if the
// file does not exist yet
func (c *Cache) Download(ctx context.Context, desc domain.ImageDescriptor) (string, error) {
	target, err := c.Path(desc)
	if err != nil {
		return "", err
	}

	if err := c.ensureDir(); err != nil {
		return "", err
	}

	if _, err := os.Stat(target); err == nil {
		c.logger.Debug("Image already cached", zap.String("path", target))
		return target, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat cached image: %w", err)
	}

	downloadURL, err := c.downloadURL(desc.RemotePath)
	if err != nil {
		return "", err
	}

	data, err := c.fetcher.Fetch(ctx, downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	size, err := c.verifier.Verify(data)
	if err != nil {
		return "", fmt.Errorf("downloaded file rejected: %w", err)
	}

	if err := writeFileAtomic(target, data); err != nil {
		return "", err
	}

	c.logger.Info("Image downloaded",
		zap.String("path", target),
		zap.Int("bytes", len(data)),
		zap.Int("width", size.X),
		zap.Int("height", size.Y))

	return target, nil
}

// ensureDir creates the pictures root if missing and the cache subdirectory
// below it (non-recursively, the root is guaranteed by then)
func (c *Cache) ensureDir() error {
	if err := os.MkdirAll(c.root, 0755); err != nil {
		return fmt.Errorf("failed to create pictures directory: %w", err)
	}
	if err := os.Mkdir(c.Dir(), 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

func (c *Cache) downloadURL(remotePath string) (string, error) {
	u, err := url.Parse(c.host + remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, u.String())
	}
	return u.String(), nil
}

// writeFileAtomic writes data next to target and renames it into place,
// so target either does not exist or holds the complete image
func writeFileAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}
