//go:build darwin
// +build darwin

package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

// DarwinExecutor sets the picture of each desktop through System Events
type DarwinExecutor struct {
	logger *zap.Logger
}

var _ domain.Executor = (*DarwinExecutor)(nil)

// NewExecutor creates a new platform-specific wallpaper executor (macOS implementation)
func NewExecutor(logger *zap.Logger) (*DarwinExecutor, error) {
	if _, err := exec.LookPath("osascript"); err != nil {
		return nil, fmt.Errorf("osascript not found: %w", err)
	}
	logger.Info("macOS wallpaper setter initialized")
	return &DarwinExecutor{logger: logger}, nil
}

// desktopScript builds the AppleScript for one display; desktops are 1-based
func desktopScript(imagePath string, display domain.Display) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(imagePath)
	return fmt.Sprintf(
		`tell application "System Events" to tell desktop %d to set picture to POSIX file "%s"`,
		display.ID+1, escaped)
}

// SetWallpaper sets the picture of a single desktop
func (e *DarwinExecutor) SetWallpaper(ctx context.Context, imagePath string, display domain.Display) error {
	script := desktopScript(imagePath, display)

	e.logger.Debug("Setting wallpaper",
		zap.Int("display", display.ID),
		zap.String("path", imagePath))

	output, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to set wallpaper on display %d: %w (output: %s)",
			display.ID, err, strings.TrimSpace(string(output)))
	}

	e.logger.Info("Wallpaper set successfully",
		zap.Int("display", display.ID),
		zap.String("path", imagePath))
	return nil
}
