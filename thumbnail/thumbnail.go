// Package thumbnail generates downscaled previews of uploaded photos
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

const (
	DefaultMaxDim = 480

	// DirName is the directory under the uploads folder holding thumbnails.
	DirName = "thumbs"

	// maxPixels guards against decoding images whose header claims an enormous canvas.
	maxPixels = 50_000_000

	jpegQuality = 85
)

var ErrTooLarge = errors.New("image dimensions too large")

// Name returns the thumbnail filename for an uploaded file. Thumbnails are always JPEG.
func Name(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
}

// Generate writes a thumbnail of srcPath into dstDir, bounded by maxDim on both sides, and
// returns its path. Images already within bounds are re-encoded at their original size.
func Generate(srcPath, dstDir string, maxDim int) (string, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}

	cfg, err := decodeConfig(srcPath)
	if err != nil {
		return "", fmt.Errorf("unable to read image config: %w", err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("unable to decode image: %w", err)
	}

	thumb := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	dstPath := filepath.Join(dstDir, Name(filepath.Base(srcPath)))
	out, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("unable to encode thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		return jpeg.DecodeConfig(f)
	case ".png":
		return png.DecodeConfig(f)
	case ".gif":
		return gif.DecodeConfig(f)
	default:
		return image.Config{}, fmt.Errorf("unknown file extension %q", ext)
	}
}
