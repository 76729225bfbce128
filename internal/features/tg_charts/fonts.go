package tg_charts

import (
	"os"
	"path/filepath"

	logging "holder-map/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

var fontPaths = []string{
	"etc/fonts/InterVariable.ttf",
	"etc/fonts/Inter-Regular.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/usr/local/share/fonts/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// findFont returns the first loadable font, or "" to fall back to gg's
// built-in face.
func findFont() string {
	for _, p := range fontPaths {
		path := expandPath(p)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := gg.LoadFontFace(path, 12); err != nil {
			logging.LogWarn("Font file exists but failed to load", zap.String("path", path), zap.Error(err))
			continue
		}
		return path
	}
	logging.LogWarn("No font found, using default face", zap.Int("paths_checked", len(fontPaths)))
	return ""
}
