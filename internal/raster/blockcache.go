package raster

import (
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultBlockCache is the number of decoded blocks kept per open raster.
const DefaultBlockCache = 64

const blockTTL = 10 * time.Minute

// block is one decoded block of a single band, row-major.
type block struct {
	width, height int
	values        []float64
}

// blockCache holds decoded blocks so neighbouring samples do not decode the
// same block repeatedly. Concurrent misses on one key decode once.
type blockCache struct {
	items    *ccache.Cache[*block]
	inflight singleflight.Group
}

func newBlockCache(size int) *blockCache {
	if size <= 0 {
		size = DefaultBlockCache
	}
	prune := uint32(size / 8)
	if prune == 0 {
		prune = 1
	}
	return &blockCache{
		items: ccache.New(ccache.Configure[*block]().MaxSize(int64(size)).ItemsToPrune(prune)),
	}
}

func blockKey(band, index int) string {
	return strconv.Itoa(band) + "/" + strconv.Itoa(index)
}

// get returns the cached block or decodes it with load.
func (c *blockCache) get(band, index int, load func() (*block, error)) (*block, error) {
	key := blockKey(band, index)
	if item := c.items.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}
	v, err, _ := c.inflight.Do(key, func() (any, error) {
		b, err := load()
		if err != nil {
			return nil, err
		}
		c.items.Set(key, b, blockTTL)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*block), nil
}

func (c *blockCache) stop() {
	c.items.Stop()
}
