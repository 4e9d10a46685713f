package grid

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	_ "golang.org/x/image/bmp"
)

// Grid file layout:
//
//	magic  [4]byte "RQG1"
//	width  uint32 little-endian
//	height uint32 little-endian
//	stride uint32 little-endian
//	pix    [(height-1)*stride + width]byte
//
// Files whose name ends in ".zst" hold the same bytes compressed with zstd.

var fileMagic = [4]byte{'R', 'Q', 'G', '1'}

const (
	headerSize = 16
	// maxFileBytes caps the cell payload a header may ask for.
	maxFileBytes = 1 << 30
)

// ErrBadFormat is returned when a grid file header is malformed.
var ErrBadFormat = errors.New("invalid grid file")

// Encode writes g in the grid file layout.
func Encode(w io.Writer, g *Grid) error {
	var hdr [headerSize]byte
	copy(hdr[:4], fileMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:], uint32(g.Width))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(g.Height))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(g.Stride))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(g.Pix[:extent(g.Width, g.Height, g.Stride)]); err != nil {
		return fmt.Errorf("failed to write cells: %w", err)
	}
	return nil
}

// Decode reads a grid in the grid file layout.
func Decode(r io.Reader) (*Grid, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if [4]byte(hdr[:4]) != fileMagic {
		return nil, fmt.Errorf("bad magic %q: %w", hdr[:4], ErrBadFormat)
	}

	width := int(binary.LittleEndian.Uint32(hdr[4:]))
	height := int(binary.LittleEndian.Uint32(hdr[8:]))
	stride := int(binary.LittleEndian.Uint32(hdr[12:]))
	if stride < width {
		return nil, fmt.Errorf("stride %d smaller than width %d: %w", stride, width, ErrBadFormat)
	}
	if !fits(maxFileBytes, width, height, stride) {
		return nil, fmt.Errorf("dimensions %dx%d stride %d exceed %d bytes: %w", width, height, stride, maxFileBytes, ErrBadFormat)
	}

	g := &Grid{
		Pix:    make([]byte, extent(width, height, stride)),
		Width:  width,
		Height: height,
		Stride: stride,
	}
	if _, err := io.ReadFull(r, g.Pix); err != nil {
		return nil, fmt.Errorf("failed to read cells: %w", err)
	}
	return g, nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// WriteFile stores g at path, zstd-compressed when path ends in ".zst".
func WriteFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create grid file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 64*1024)
	var w io.Writer = bw

	var enc *zstd.Encoder
	if isCompressed(path) {
		enc, err = zstd.NewWriter(bw,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			return fmt.Errorf("zstd encoder: %w", err)
		}
		w = enc
	}

	if err := Encode(w, g); err != nil {
		if enc != nil {
			enc.Close()
		}
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd encode: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush grid file: %w", err)
	}

	slog.Debug("Grid written", "path", path, "width", g.Width, "height", g.Height, "compressed", enc != nil)
	return f.Close()
}

// ReadFile loads a grid written by WriteFile.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 64*1024)
	if isCompressed(path) {
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	g, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Grid loaded", "path", path, "width", g.Width, "height", g.Height)
	return g, nil
}

// DecodeImage converts any registered image format (PNG, JPEG, GIF, BMP)
// into a tightly packed grid of 8-bit gray levels.
func DecodeImage(r io.Reader) (*Grid, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	g := &Grid{
		Pix:    make([]byte, b.Dx()*b.Dy()),
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: b.Dx(),
	}
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < g.Height; y++ {
			start := y * gray.Stride
			copy(g.Pix[y*g.Stride:], gray.Pix[start:start+g.Width])
		}
		return g, nil
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			g.Set(y-b.Min.Y, x-b.Min.X, c.Y)
		}
	}
	return g, nil
}

// ReadImageFile opens path and decodes it with DecodeImage.
func ReadImageFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return DecodeImage(f)
}
