// Package barcode renders Code128 artifacts for product codes.
package barcode

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

const (
	imageWidth  = 300
	imageHeight = 120
)

type Generator struct {
	dir string
}

// NewGenerator creates a generator writing PNG files under dir
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Generate renders the Code128 image for a product code and returns its
// path. The artifact is deterministic in the code, so an existing file is
// reused rather than regenerated.
func (g *Generator) Generate(code string) (string, error) {
	path := filepath.Join(g.dir, fmt.Sprintf("%s_barcode.png", code))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create barcode dir: %w", err)
	}

	encoded, err := code128.Encode(code)
	if err != nil {
		return "", fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := bc.Scale(encoded, imageWidth, imageHeight)
	if err != nil {
		return "", fmt.Errorf("failed to scale barcode: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, scaled); err != nil {
		return "", fmt.Errorf("failed to write barcode image: %w", err)
	}
	return path, nil
}
