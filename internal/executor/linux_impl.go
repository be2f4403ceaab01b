//go:build linux
// +build linux

package executor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/genricoloni/bingwall/internal/domain"
	"go.uber.org/zap"
)

// WallpaperCommand represents a detected wallpaper setter command
type WallpaperCommand struct {
	Name    string
	Binary  string
	Args    [][]string // One invocation per entry; %s is replaced with the image path
	UsesURI bool       // If true, the path is passed as a file:// URI
}

var (
	// Ordered list of wallpaper commands to try (highest priority first)
	wallpaperCommands = []WallpaperCommand{
		// Hyprland - swww (recommended)
		{Name: "swww", Binary: "swww", Args: [][]string{{"img", "%s"}}},
		// Hyprland - hyprpaper needs the image preloaded first
		{Name: "hyprpaper", Binary: "hyprctl", Args: [][]string{
			{"hyprpaper", "preload", "%s"},
			{"hyprpaper", "wallpaper", ",%s"},
		}},
		// swaybg (Sway/Wayland)
		{Name: "swaybg", Binary: "swaybg", Args: [][]string{{"-i", "%s", "-m", "fill"}}},
		// GNOME keeps separate light and dark backgrounds
		{Name: "gnome", Binary: "gsettings", Args: [][]string{
			{"set", "org.gnome.desktop.background", "picture-uri", "%s"},
			{"set", "org.gnome.desktop.background", "picture-uri-dark", "%s"},
		}, UsesURI: true},
		// Generic X11 - feh
		{Name: "feh", Binary: "feh", Args: [][]string{{"--bg-fill", "%s"}}},
		// Generic X11 - nitrogen
		{Name: "nitrogen", Binary: "nitrogen", Args: [][]string{{"--set-zoom-fill", "--save", "%s"}}},
	}
)

// LinuxExecutor handles wallpaper setting on Linux systems.
// Every supported setter covers all outputs at once, so only the primary
// display triggers a command.
type LinuxExecutor struct {
	logger  *zap.Logger
	command WallpaperCommand
}

var _ domain.Executor = (*LinuxExecutor)(nil)

// NewExecutor creates a new platform-specific wallpaper executor (Linux implementation)
func NewExecutor(logger *zap.Logger) (*LinuxExecutor, error) {
	cmd := detectCommand(logger, os.Getenv, commandExists)
	if cmd.Binary == "" {
		return nil, fmt.Errorf("no supported wallpaper command found on this system")
	}

	logger.Info("Wallpaper setter detected",
		zap.String("name", cmd.Name),
		zap.String("binary", cmd.Binary))

	return &LinuxExecutor{
		logger:  logger,
		command: cmd,
	}, nil
}

// detectCommand analyzes the environment to choose the best wallpaper command
func detectCommand(logger *zap.Logger, getenv func(string) string, exists func(string) bool) WallpaperCommand {
	// Check environment variables for hints
	desktop := getenv("XDG_CURRENT_DESKTOP")
	session := getenv("XDG_SESSION_TYPE")
	wayland := getenv("WAYLAND_DISPLAY")
	hyprland := getenv("HYPRLAND_INSTANCE_SIGNATURE")

	logger.Debug("Detecting wallpaper command",
		zap.String("desktop", desktop),
		zap.String("session", session),
		zap.String("wayland", wayland),
		zap.String("hyprland", hyprland))

	pick := func(names ...string) (WallpaperCommand, bool) {
		for _, cmd := range wallpaperCommands {
			for _, name := range names {
				if cmd.Name == name && exists(cmd.Binary) {
					return cmd, true
				}
			}
		}
		return WallpaperCommand{}, false
	}

	// Priority-based detection
	if hyprland != "" {
		if cmd, ok := pick("swww", "hyprpaper"); ok {
			return cmd
		}
	}

	if strings.Contains(strings.ToLower(desktop), "gnome") {
		if cmd, ok := pick("gnome"); ok {
			return cmd
		}
	}

	if wayland != "" || session == "wayland" {
		if cmd, ok := pick("swww", "swaybg"); ok {
			return cmd
		}
	}

	// Fallback: try all commands in order
	for _, cmd := range wallpaperCommands {
		if exists(cmd.Binary) {
			logger.Info("Using fallback wallpaper command", zap.String("name", cmd.Name))
			return cmd
		}
	}

	return WallpaperCommand{} // No command found
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// buildArgs expands the command templates for imagePath
func buildArgs(cmd WallpaperCommand, imagePath string) [][]string {
	path := imagePath
	if cmd.UsesURI {
		path = (&url.URL{Scheme: "file", Path: imagePath}).String()
	}

	invocations := make([][]string, 0, len(cmd.Args))
	for _, tmpl := range cmd.Args {
		args := make([]string, len(tmpl))
		for i, arg := range tmpl {
			args[i] = strings.ReplaceAll(arg, "%s", path)
		}
		invocations = append(invocations, args)
	}
	return invocations
}

// SetWallpaper sets the desktop wallpaper to the specified image
func (e *LinuxExecutor) SetWallpaper(ctx context.Context, imagePath string, display domain.Display) error {
	if display.ID != 0 {
		e.logger.Debug("Setter covers all outputs, skipping secondary display",
			zap.String("command", e.command.Name),
			zap.Int("display", display.ID))
		return nil
	}

	for _, args := range buildArgs(e.command, imagePath) {
		e.logger.Debug("Setting wallpaper",
			zap.String("command", e.command.Binary),
			zap.Strings("args", args),
			zap.String("path", imagePath))

		cmd := exec.CommandContext(ctx, e.command.Binary, args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("failed to set wallpaper with %s: %w (output: %s)",
				e.command.Name, err, strings.TrimSpace(string(output)))
		}
	}

	e.logger.Info("Wallpaper set successfully",
		zap.String("command", e.command.Name),
		zap.String("path", imagePath))

	return nil
}
