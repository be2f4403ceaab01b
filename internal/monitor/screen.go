package monitor

import (
	"github.com/genricoloni/bingwall/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// ScreenProvider enumerates attached displays through the screenshot backend
type ScreenProvider struct {
	logger *zap.Logger
}

// NewScreenProvider creates a display provider
func NewScreenProvider(logger *zap.Logger) *ScreenProvider {
	return &ScreenProvider{logger: logger}
}

// ActiveDisplays returns every active display with its bounds, in backend order
func (p *ScreenProvider) ActiveDisplays() []domain.Display {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		p.logger.Warn("No active displays detected")
		return nil
	}

	displays := make([]domain.Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, domain.Display{
			ID:     i,
			Bounds: screenshot.GetDisplayBounds(i),
		})
	}

	p.logger.Debug("Displays detected", zap.Int("count", len(displays)))
	return displays
}

// sameLayout reports whether two display lists describe the same topology
func sameLayout(a, b []domain.Display) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Bounds.Eq(b[i].Bounds) {
			return false
		}
	}
	return true
}
