//go:build windows
// +build windows

package executor

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

var procSystemParametersInfoW = windows.NewLazySystemDLL("user32.dll").NewProc("SystemParametersInfoW")

// WindowsExecutor handles wallpaper setting on Windows systems
type WindowsExecutor struct {
	logger *zap.Logger
}

var _ domain.Executor = (*WindowsExecutor)(nil)

// NewExecutor creates a new platform-specific wallpaper executor (Windows implementation)
func NewExecutor(logger *zap.Logger) (*WindowsExecutor, error) {
	if err := procSystemParametersInfoW.Find(); err != nil {
		return nil, fmt.Errorf("SystemParametersInfoW unavailable: %w", err)
	}
	logger.Info("Windows wallpaper setter initialized")
	return &WindowsExecutor{logger: logger}, nil
}

// SetWallpaper sets the desktop wallpaper using the Windows API.
// SPI_SETDESKWALLPAPER spans every monitor, so only the primary display
// triggers the call.
func (e *WindowsExecutor) SetWallpaper(ctx context.Context, imagePath string, display domain.Display) error {
	if display.ID != 0 {
		return nil
	}

	path, err := windows.UTF16PtrFromString(imagePath)
	if err != nil {
		return fmt.Errorf("invalid wallpaper path: %w", err)
	}

	ret, _, callErr := procSystemParametersInfoW.Call(
		spiSetDeskWallpaper,
		0,
		uintptr(unsafe.Pointer(path)),
		spifUpdateIniFile|spifSendChange,
	)
	if ret == 0 {
		return fmt.Errorf("SystemParametersInfoW failed: %w", callErr)
	}

	e.logger.Info("Wallpaper set successfully", zap.String("path", imagePath))
	return nil
}
