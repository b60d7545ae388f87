package config

import (
	"log"

	"github.com/redis/rueidis"
)

// NewRedisClient connects the pub/sub backend used for task-update
// broadcasts. Subscribers are browser-facing processes, so pipelining
// stays on and only the address is configurable.
func NewRedisClient(addr string) rueidis.Client {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		ClientName:   "demandsync",
		DisableCache: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", addr, err)
	}

	return client
}
