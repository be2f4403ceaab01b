package domain

import (
	"context"
	"image"
	"time"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/genricoloni/bingwall/internal/domain FeedClient,ImageCache,Fetcher,Executor,DisplayProvider

// FeedClient queries the image-of-the-day feed
type FeedClient interface {
	// TodayImage returns the descriptor at the given offset (0 = today).
	// A nil descriptor with a nil error means the feed has nothing at that offset.
	TodayImage(ctx context.Context, index int) (*ImageDescriptor, error)
}

// ImageCache maps a descriptor to a local file, downloading it at most once
type ImageCache interface {
	// Download returns the path of the cached image, fetching it only if missing
	Download(ctx context.Context, desc ImageDescriptor) (string, error)
}

// Fetcher defines the interface for retrieving image bytes
type Fetcher interface {
	// Fetch downloads image data from a URL
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DocumentFetcher retrieves non-image payloads such as the feed JSON
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, error)
}

// ImageVerifier checks that downloaded bytes are a decodable image
type ImageVerifier interface {
	// Verify returns the image dimensions or an error if data is not an image
	Verify(data []byte) (image.Point, error)
}

// Executor defines the interface for applying a wallpaper
type Executor interface {
	// SetWallpaper sets the background of one display to the specified image path
	SetWallpaper(ctx context.Context, imagePath string, display Display) error
}

// DisplayProvider enumerates the currently attached displays
type DisplayProvider interface {
	ActiveDisplays() []Display
}

// DisplayWatcher reports display topology changes
type DisplayWatcher interface {
	// Start begins watching; it returns once the watcher is running
	Start(ctx context.Context) error

	// Stop gracefully stops the watcher and closes the events channel
	Stop(ctx context.Context) error

	// Events returns a read-only channel that emits a DisplayEvent
	// whenever the display layout may have changed
	Events() <-chan DisplayEvent
}

// Config defines the interface for application configuration
type Config interface {
	// GetPicturesDir returns the platform pictures directory holding the cache
	GetPicturesDir() string

	// GetMarket returns the feed market code (e.g., "en-US")
	GetMarket() string

	// GetHost returns the feed and image host
	GetHost() string

	// GetDisplayPollInterval returns how often the polling display watcher samples
	GetDisplayPollInterval() time.Duration
}
