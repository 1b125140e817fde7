// README: Redis pub/sub fan-out of geofence events for live dashboards.
package tracking

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"greenroute/internal/geofence"
)

type Publisher struct {
	redis *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{redis: rdb}
}

func (p *Publisher) Publish(ctx context.Context, ev geofence.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, EventsChannel, payload).Err()
}
