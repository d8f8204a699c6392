package imaging

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultThumbnailCacheSize is the number of thumbnails kept in memory.
const DefaultThumbnailCacheSize = 256

type thumbKey struct {
	id      string
	version int64
}

// Thumbnails renders small JPEG previews and keeps the most recently used
// ones in an LRU cache. Entries are keyed by owner ID and modification time,
// so replacing an image makes the old thumbnail unreachable.
type Thumbnails struct {
	cache *lru.Cache[thumbKey, []byte]
}

// NewThumbnails returns a thumbnail renderer caching up to size entries.
func NewThumbnails(size int) (*Thumbnails, error) {
	if size <= 0 {
		size = DefaultThumbnailCacheSize
	}
	cache, err := lru.New[thumbKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating thumbnail cache: %w", err)
	}
	return &Thumbnails{cache: cache}, nil
}

// Get returns the thumbnail for the image identified by id as of modified.
// load is called only on a cache miss.
func (t *Thumbnails) Get(id string, modified time.Time, load func() ([]byte, error)) ([]byte, error) {
	key := thumbKey{id: id, version: modified.UnixNano()}
	if data, ok := t.cache.Get(key); ok {
		return data, nil
	}

	src, err := load()
	if err != nil {
		return nil, err
	}
	data, err := Fit(src, ThumbnailDimension)
	if err != nil {
		return nil, fmt.Errorf("rendering thumbnail: %w", err)
	}
	t.cache.Add(key, data)
	return data, nil
}

// Len returns the number of cached thumbnails.
func (t *Thumbnails) Len() int {
	return t.cache.Len()
}
