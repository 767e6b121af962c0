package imaging

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
)

// ErrInvalidID reports a sheet id that would not stay inside Store.Dir.
var ErrInvalidID = errors.New("invalid sheet id")

// Store persists finished sheets to a directory.
type Store struct {
	// Dir receives the files. It is created on first save.
	Dir string

	// Format and Quality select the encoding; see Encode.
	Format  Format
	Quality int

	// Grid, when set, is drawn over the three derived layers before saving.
	// Rows and Cols come from the result; only the style is used.
	Grid *GridOptions
}

// SavedSet lists the files written for one sheet.
type SavedSet struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	Layer1   string `json:"layer1"`
	Layer2   string `json:"layer2"`
	Shaded   string `json:"shaded"`
}

// NewID returns a random 16 hex character identifier.
func NewID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// ValidateID rejects ids that contain a path separator or "..". The empty
// id is valid; SaveResult replaces it with NewID.
func ValidateID(id string) error {
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// SaveResult writes <id>_original, <id>_layer1, <id>_layer2 and <id>_shaded
// into s.Dir. An empty id is replaced by NewID.
func (s *Store) SaveResult(id string, res *sketch.Result) (*SavedSet, error) {
	if res == nil {
		return nil, fmt.Errorf("nothing to save")
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if id == "" {
		var err error
		if id, err = NewID(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	set := &SavedSet{ID: id}
	layers := []struct {
		name string
		img  image.Image
		grid bool
		dst  *string
	}{
		{"original", res.Original, false, &set.Original},
		{"layer1", res.Layer1, true, &set.Layer1},
		{"layer2", res.Layer2, true, &set.Layer2},
		{"shaded", res.Shaded, true, &set.Shaded},
	}

	for _, l := range layers {
		img := l.img
		if l.grid && s.Grid != nil {
			opts := *s.Grid
			opts.Rows, opts.Cols = res.Grid.Rows, res.Grid.Cols
			withGrid, err := OverlayGrid(img, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to draw grid on %s: %w", l.name, err)
			}
			img = withGrid
		}

		path := filepath.Join(s.Dir, fmt.Sprintf("%s_%s.%s", id, l.name, s.Format.Ext()))
		if err := s.save(img, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", l.name, err)
		}
		*l.dst = path
	}
	return set, nil
}

func (s *Store) save(img image.Image, path string) error {
	quality := s.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return imaging.Save(img, path, imaging.JPEGQuality(quality))
}
