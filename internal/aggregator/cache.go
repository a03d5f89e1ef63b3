package aggregator

import (
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"imoradar/internal/domain/models"
)

// Cache is the bounded-lifetime query-result cache. It is purely a
// performance layer: losing an entry only re-triggers the store/scrape path.
type Cache struct {
	lru *expirable.LRU[string, []models.Listing]
}

func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{lru: expirable.NewLRU[string, []models.Listing](capacity, nil, ttl)}
}

func (c *Cache) Get(key string) ([]models.Listing, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Add(key string, items []models.Listing) {
	c.lru.Add(key, items)
}

// cacheKey builds the deterministic key of one query's merged result set.
// sources must already be sorted (Registry.Select guarantees it).
func cacheKey(district, slug string, pages int, sources []string, typology string, st models.SearchType, limit int) string {
	return strings.Join([]string{
		district,
		slug,
		strconv.Itoa(pages),
		strings.Join(sources, ","),
		typology,
		string(st),
		strconv.Itoa(limit),
	}, "|")
}
