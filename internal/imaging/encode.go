package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output encoding for sheet rasters.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// DefaultJPEGQuality matches the quality most decoders assume for
// photographic output.
const DefaultJPEGQuality = 95

// ParseFormat maps "jpeg", "jpg" and "png" to a Format. An empty string
// selects JPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// MimeType returns the MIME type for f.
func (f Format) MimeType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (f Format) imagingFormat() imaging.Format {
	if f == FormatPNG {
		return imaging.PNG
	}
	return imaging.JPEG
}

// EncodedImage is a raster encoded for transport.
type EncodedImage struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
	Base64   string `json:"image_base64"`
}

// Encode writes img in format f. quality applies to JPEG only; values
// outside 1..100 fall back to DefaultJPEGQuality.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f.imagingFormat(), imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes img and wraps it as base64 for JSON responses.
func EncodeBase64(img image.Image, f Format, quality int) (*EncodedImage, error) {
	data, err := Encode(img, f, quality)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:    b.Dx(),
		Height:   b.Dy(),
		MimeType: f.MimeType(),
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}
