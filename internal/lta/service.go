package lta

import (
	"log"

	"smarttravel/internal/cache"
)

// Service wraps the Datamall client with the response cache. One instance is
// constructed at process start and shared by every handler; the cache handle
// is threaded through it rather than living in a package global.
type Service struct {
	client *Client
	cache  *cache.Cache
	logger *log.Logger
}

func NewService(client *Client, c *cache.Cache, logger *log.Logger) *Service {
	return &Service{client: client, cache: c, logger: logger}
}
