//go:build !linux && !windows && !darwin
// +build !linux,!windows,!darwin

package executor

import (
	"context"
	"fmt"
	"runtime"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

// StubExecutor is a placeholder for unsupported platforms (BSD, etc.)
type StubExecutor struct {
	logger *zap.Logger
}

// NewExecutor creates a stub executor for unsupported platforms
func NewExecutor(logger *zap.Logger) (*StubExecutor, error) {
	logger.Warn("Wallpaper setting is not implemented for this platform", zap.String("os", runtime.GOOS))
	return &StubExecutor{logger: logger}, nil
}

// SetWallpaper returns an error indicating the platform is not supported
func (e *StubExecutor) SetWallpaper(ctx context.Context, imagePath string, display domain.Display) error {
	return fmt.Errorf("wallpaper setting not implemented for %s", runtime.GOOS)
}
