// Package media decodes the raster images placed on slides.
//
// PNG, JPEG and GIF are decoded by the standard library; BMP and WebP are
// registered from golang.org/x/image. Every decoded [Image] keeps its source
// bytes so vector outputs can embed the original file unchanged.
package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	// Register decoders for standard formats.
	_ "image/gif"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// Image is a decoded raster image.
type Image struct {
	Width, Height int
	Img           image.Image
	Data          []byte // source bytes
	MIME          string
}

// Decode decodes image bytes.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "empty image data")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}
	b := img.Bounds()
	return &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Img:    img,
		Data:   data,
		MIME:   http.DetectContentType(data),
	}, nil
}

// Load reads and decodes an image file.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read image %s", path)
	}
	im, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "image %s", path)
	}
	return im, nil
}

// Scale resizes src to w x h using CatmullRom interpolation.
func Scale(src image.Image, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// DataURI returns a data URI for embedding im in SVG. PNG and JPEG sources
// are embedded as-is; other formats are re-encoded as PNG.
func (im *Image) DataURI() (string, error) {
	data, mime := im.Data, im.MIME
	if mime != "image/png" && mime != "image/jpeg" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, im.Img); err != nil {
			return "", errors.Wrap(errors.ErrCodeRenderFailed, err, "encode png")
		}
		data, mime = buf.Bytes(), "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// JPEG encodes im as JPEG at the given quality.
func (im *Image) JPEG(quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, im.Img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// PNG encodes im as an 8-bit non-interlaced PNG.
func (im *Image) PNG() ([]byte, error) {
	src := im.Img
	if _, ok := src.(*image.NRGBA); !ok {
		b := src.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		src = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Cache memoizes loaded images by cleaned path. It is safe for concurrent
// use and is shared by all slides of a deck.
type Cache struct {
	mu     sync.Mutex
	images map[string]*Image
	load   func(string) (*Image, error)
}

// NewCache returns an empty cache backed by [Load].
func NewCache() *Cache {
	return &Cache{images: make(map[string]*Image), load: Load}
}

// Get returns the cached image for path, loading it on first use.
// Failed loads are not cached.
func (c *Cache) Get(path string) (*Image, error) {
	key := filepath.Clean(path)
	c.mu.Lock()
	if im, ok := c.images[key]; ok {
		c.mu.Unlock()
		return im, nil
	}
	c.mu.Unlock()

	im, err := c.load(key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.images[key]; ok {
		return existing, nil
	}
	c.images[key] = im
	return im, nil
}

// Put stores an already decoded image under path.
func (c *Cache) Put(path string, im *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[filepath.Clean(path)] = im
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}
