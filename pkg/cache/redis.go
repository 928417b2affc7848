package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings the server. It returns nil when redis is
// unreachable; callers treat a nil client as "no rate limiting".
func NewRedisClient(addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Redis] %s unreachable, continuing without it: %v", addr, err)
		_ = client.Close()
		return nil
	}

	log.Printf("[Redis] connected to %s (db %d)", addr, db)
	return client
}
