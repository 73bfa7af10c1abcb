package render

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes Render output. Responses are re-read on every results view
// while the stored comparison stays the same.
type Cache struct {
	entries *lru.Cache[[sha256.Size]byte, []Block]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[[sha256.Size]byte, []Block](size)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}
	return &Cache{entries: c}, nil
}

// Render returns a copy so callers can never mutate a cached slice.
func (c *Cache) Render(text string) []Block {
	key := sha256.Sum256([]byte(text))
	if blocks, ok := c.entries.Get(key); ok {
		return append([]Block(nil), blocks...)
	}
	blocks := Render(text)
	c.entries.Add(key, blocks)
	return append([]Block(nil), blocks...)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
