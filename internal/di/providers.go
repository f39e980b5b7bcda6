package di

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"doubtdesk/internal/chat/handler"
	"doubtdesk/internal/config"
	"doubtdesk/internal/dbmongo"
	"doubtdesk/internal/media"
	"doubtdesk/internal/realtime"
)

// ChatApplication bundles everything the chat-svc binary needs.
type ChatApplication struct {
	Config  *config.Config
	DB      *gorm.DB
	Hub     *realtime.Hub
	Broker  realtime.Broker
	Handler *handler.ChatHandler
}

// MediaApplication bundles everything the media-server binary needs.
type MediaApplication struct {
	Config *config.Config
	Mongo  *dbmongo.MongoClient
	Server *media.HTTPServer
}

// ProvideBroker picks the fan-out path: in-process for a single node, Redis
// pub/sub when REDIS_ADDR is set. The caller starts Listen on the Redis one.
func ProvideBroker(cfg *config.Config, hub *realtime.Hub) realtime.Broker {
	if cfg.Redis.Addr == "" {
		return realtime.NewLocalBroker(hub)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Printf("Using Redis broker at %s", cfg.Redis.Addr)
	return realtime.NewRedisBroker(client)
}
