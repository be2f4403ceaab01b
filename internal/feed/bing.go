// Package feed queries the Bing image-of-the-day archive.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

const (
	archivePath = "/HPImageArchive.aspx"
	dateLayout  = "20060102"
)

// ErrIndexOutOfRange is returned for offsets outside [0, domain.MaxIndex]
var ErrIndexOutOfRange = errors.New("image index out of range")

// Option configures a Client
type Option func(*Client)

// WithLocation sets the time zone feed dates are interpreted in (default: local)
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.location = loc
	}
}

// Client implements domain.FeedClient against the Bing JSON archive
type Client struct {
	logger   *zap.Logger
	fetcher  domain.DocumentFetcher
	host     string
	market   string
	location *time.Location
}

// NewClient creates a feed client using the configured host and market
func NewClient(logger *zap.Logger, fetcher domain.DocumentFetcher, cfg domain.Config, opts ...Option) *Client {
	c := &Client{
		logger:   logger,
		fetcher:  fetcher,
		host:     cfg.GetHost(),
		market:   cfg.GetMarket(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type archiveResponse struct {
	Images []archiveImage `json:"images"`
}

type archiveImage struct {
	StartDate     string `json:"startdate"`
	EndDate       string `json:"enddate"`
	URL           string `json:"url"`
	URLBase       string `json:"urlbase"`
	Copyright     string `json:"copyright"`
	CopyrightLink string `json:"copyrightlink"`
	Title         string `json:"title"`
}

// TodayImage returns the descriptor at offset index, or nil when the feed has none
func (c *Client) TodayImage(ctx context.Context, index int) (*domain.ImageDescriptor, error) {
	if index < 0 || index > domain.MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	endpoint := c.endpoint(index)
	data, err := c.fetcher.FetchDocument(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	var resp archiveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	if len(resp.Images) == 0 {
		c.logger.Info("Feed returned no image", zap.Int("index", index))
		return nil, nil
	}

	desc, err := c.toDescriptor(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	c.logger.Debug("Feed descriptor received",
		zap.Int("index", index),
		zap.String("title", desc.Title),
		zap.Time("endDate", desc.EndDate))

	return desc, nil
}

func (c *Client) endpoint(index int) string {
	q := url.Values{}
	q.Set("format", "js")
	q.Set("idx", strconv.Itoa(index))
	q.Set("n", "1")
	q.Set("mkt", c.market)
	return c.host + archivePath + "?" + q.Encode()
}

func (c *Client) toDescriptor(img archiveImage) (*domain.ImageDescriptor, error) {
	start, err := time.ParseInLocation(dateLayout, img.StartDate, c.location)
	if err != nil {
		return nil, fmt.Errorf("invalid startdate %q: %w", img.StartDate, err)
	}
	end, err := time.ParseInLocation(dateLayout, img.EndDate, c.location)
	if err != nil {
		return nil, fmt.Errorf("invalid enddate %q: %w", img.EndDate, err)
	}

	link, err := url.Parse(img.CopyrightLink)
	if err != nil {
		return nil, fmt.Errorf("invalid copyrightlink: %w", err)
	}

	return &domain.ImageDescriptor{
		Copyright:     img.Copyright,
		Title:         img.Title,
		RemotePath:    img.URL,
		BaseName:      img.URLBase,
		CopyrightLink: *link,
		StartDate:     start,
		EndDate:       end,
	}, nil
}
