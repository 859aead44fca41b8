// Package storage keeps uploaded images outside the database.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned when an upload is not an accepted image.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds the configured cap.
	ErrTooLarge = errors.New("file too large")
)

// Store is an opaque blob store addressed by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a sniffed upload ready to be stored.
type Image struct {
	ContentType string
	Ext         string
	Body        io.Reader
}

// SniffImage reads the head of r to detect its type and rejects anything
// that is not a png, jpeg, gif or webp image. The returned Body replays the
// sniffed bytes followed by the rest of r, capped at maxBytes.
func SniffImage(r io.Reader, maxBytes int64) (*Image, error) {
	limited := &capReader{r: r, remaining: maxBytes}
	head := make([]byte, 3072)
	n, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	ext, ok := "", false
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok = imageTypes[m.String()]; ok {
			return &Image{
				ContentType: m.String(),
				Ext:         ext,
				Body:        io.MultiReader(bytes.NewReader(head), limited),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// NewKey builds a unique key under prefix, e.g. "id_cards/front-<uuid>.png".
func NewKey(prefix, name, ext string) string {
	return path.Join(prefix, fmt.Sprintf("%s-%s%s", name, uuid.NewString(), ext))
}

type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		// Read one more byte so an upload of exactly the cap still succeeds.
		var extra [1]byte
		n, err := c.r.Read(extra[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
