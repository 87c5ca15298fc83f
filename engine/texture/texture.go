// Package texture manages CPU-side texture records and their ids. Ids are
// monotonically increasing and never reused; id 0 is reserved for a built-in
// 1x1 white placeholder that is always resident, so draws that need "no
// texture" can bind a valid resource instead of branching.
package texture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/ryanw/byd-go/engine/logger"
)

// PlaceholderID is the reserved id of the built-in 1x1 white texture.
const PlaceholderID uint64 = 0

// maxDimension is the largest width or height accepted without downscaling.
const maxDimension = 2048

// Texture is a CPU-side RGBA8 pixel record awaiting or backing a GPU upload.
type Texture struct {
	Width  uint32
	Height uint32
	Pixels []byte
}

// Uploader is the slice of the renderer the registry needs to push textures
// to the GPU. The renderer satisfies it.
type Uploader interface {
	RegisterTexture(id uint64, width, height uint32, pixels []byte) error
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu       *sync.Mutex
	nextID   uint64
	records  map[uint64]Texture
	uploaded map[uint64]bool
}

// Registry allocates texture ids and holds pixel data until the renderer is
// ready to upload. Safe for concurrent use.
type Registry interface {
	// Register stores a decoded image and returns its fresh id. Images
	// larger than 2048 on either axis are downscaled to fit.
	//
	// Parameters:
	//   - img: the decoded image
	//
	// Returns:
	//   - uint64: the assigned texture id (never 0)
	Register(img image.Image) uint64

	// RegisterPixels stores raw RGBA8 pixels and returns their fresh id.
	//
	// Parameters:
	//   - width, height: dimensions in pixels
	//   - pixels: RGBA8 data, 4*width*height bytes
	//
	// Returns:
	//   - uint64: the assigned texture id (never 0)
	//   - error: dimension/byte-length mismatch
	RegisterPixels(width, height uint32, pixels []byte) (uint64, error)

	// Load reads and decodes an image file, then registers it.
	//
	// Parameters:
	//   - path: filesystem path to a PNG or JPEG file
	//
	// Returns:
	//   - uint64: the assigned texture id
	//   - error: read or decode failure
	Load(path string) (uint64, error)

	// Get returns the CPU-side record for an id. The placeholder id 0 is
	// always present.
	//
	// Parameters:
	//   - id: the texture id
	//
	// Returns:
	//   - Texture: the record
	//   - bool: false if the id was never registered
	Get(id uint64) (Texture, bool)

	// Upload pushes every not-yet-uploaded texture, including the
	// placeholder, through the uploader. Called by the render driver once
	// a device exists and again whenever new textures were registered.
	//
	// Parameters:
	//   - u: the GPU uploader
	//
	// Returns:
	//   - error: the first upload failure
	Upload(u Uploader) error
}

var _ Registry = &registry{}

// NewRegistry creates a texture registry with the placeholder pre-registered
// at id 0.
//
// Returns:
//   - Registry: the new registry
func NewRegistry() Registry {
	r := &registry{
		mu:       &sync.Mutex{},
		nextID:   1,
		records:  make(map[uint64]Texture),
		uploaded: make(map[uint64]bool),
	}
	r.records[PlaceholderID] = Texture{
		Width:  1,
		Height: 1,
		Pixels: []byte{255, 255, 255, 255},
	}
	return r
}

func (r *registry) Register(img image.Image) uint64 {
	rgba := toRGBA(img)
	bounds := rgba.Bounds()

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.records[id] = Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: rgba.Pix,
	}
	logger.Debug("texture registered", "id", id, "width", bounds.Dx(), "height", bounds.Dy())
	return id
}

func (r *registry) RegisterPixels(width, height uint32, pixels []byte) (uint64, error) {
	if uint64(len(pixels)) != 4*uint64(width)*uint64(height) {
		return 0, fmt.Errorf("texture pixels are %d bytes, want %d", len(pixels), 4*width*height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.records[id] = Texture{Width: width, Height: height, Pixels: pixels}
	return id, nil
}

func (r *registry) Load(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return r.Register(img), nil
}

func (r *registry) Get(id uint64) (Texture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.records[id]
	return t, ok
}

func (r *registry) Upload(u Uploader) error {
	r.mu.Lock()
	pending := make(map[uint64]Texture)
	for id, t := range r.records {
		if !r.uploaded[id] {
			pending[id] = t
		}
	}
	r.mu.Unlock()

	for id, t := range pending {
		if err := u.RegisterTexture(id, t.Width, t.Height, t.Pixels); err != nil {
			return fmt.Errorf("upload texture %d: %w", id, err)
		}
		r.mu.Lock()
		r.uploaded[id] = true
		r.mu.Unlock()
	}
	return nil
}

// toRGBA converts an image to tightly-packed RGBA8, downscaling when either
// dimension exceeds the maximum.
func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxDimension || h > maxDimension {
		scale := float64(maxDimension) / float64(max(w, h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Copy(dst, image.Point{}, img, bounds, xdraw.Over, nil)
	return dst
}
