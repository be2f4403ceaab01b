package domain

import (
	"image"
	"net/url"
	"strings"
	"time"
)

const (
	// MaxIndex is the oldest offset the feed serves (0 = today)
	MaxIndex = 7

	// ExpirationGrace absorbs feed publication lag past a descriptor's end date
	ExpirationGrace = 7 * time.Hour
)

// ImageDescriptor describes one day's featured image as published by the feed
type ImageDescriptor struct {
	// Copyright is the caption, usually "Title (© Credit)"
	Copyright string
	// Title is the short headline of the image
	Title string
	// RemotePath is the host-relative path of the full-size image
	RemotePath string
	// BaseName is the host-relative base used to derive the cache filename
	BaseName string
	// CopyrightLink points to a page about the image
	CopyrightLink url.URL
	// StartDate is the first day the image is featured
	StartDate time.Time
	// EndDate is the day the image stops being featured
	EndDate time.Time
}

// Equal reports whether two descriptors carry the same values
func (d ImageDescriptor) Equal(other ImageDescriptor) bool {
	return d.Copyright == other.Copyright &&
		d.Title == other.Title &&
		d.RemotePath == other.RemotePath &&
		d.BaseName == other.BaseName &&
		d.CopyrightLink.String() == other.CopyrightLink.String() &&
		d.StartDate.Equal(other.StartDate) &&
		d.EndDate.Equal(other.EndDate)
}

// Expiration returns the instant after which a newer image should be fetched
func (d ImageDescriptor) Expiration() time.Time {
	return d.EndDate.Add(ExpirationGrace)
}

// Caption splits the copyright text into headline and credit ("© ...").
// ok is false when the text does not follow the "Headline (© Credit)" form.
func (d ImageDescriptor) Caption() (headline, credit string, ok bool) {
	parts := strings.Split(d.Copyright, " (©")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], "©" + strings.TrimSuffix(parts[1], ")"), true
}

// WallpaperState is the snapshot of what is currently applied.
// A published state is never modified; it is replaced as a whole.
type WallpaperState struct {
	// Index is the feed offset, 0 = most recent
	Index int
	// Descriptor is the image metadata at Index
	Descriptor ImageDescriptor
	// LocalPath is the cached image file on disk
	LocalPath string
}

// CanGoNewer reports whether a more recent image exists
func (s WallpaperState) CanGoNewer() bool {
	return s.Index > 0
}

// CanGoOlder reports whether an older image is still within the feed history
func (s WallpaperState) CanGoOlder() bool {
	return s.Index < MaxIndex
}

// Display identifies one attached screen
type Display struct {
	ID     int
	Bounds image.Rectangle
}

// DisplayEvent signals that the set of attached displays may have changed
type DisplayEvent struct {
	// Source names the mechanism that noticed the change (e.g., "dbus", "poll")
	Source string
	At     time.Time
}
