// README: Redis client for live positions and tracking pub/sub.
package infra

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedis accepts either a bare host:port or a redis:// / rediss:// URL.
// A URL that fails to parse is used as a plain address.
func NewRedis(addr string) *redis.Client {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			return redis.NewClient(opts)
		}
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}
