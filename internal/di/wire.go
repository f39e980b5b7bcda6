//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"doubtdesk/internal/assignment"
	"doubtdesk/internal/chat/handler"
	"doubtdesk/internal/chat/repository"
	"doubtdesk/internal/chat/service"
	"doubtdesk/internal/config"
	"doubtdesk/internal/dbmongo"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/directory"
	"doubtdesk/internal/media"
	"doubtdesk/internal/realtime"
)

// This is just a declaration, wire generates the real body
func InitializeChatService() (*ChatApplication, error) {
	wire.Build(
		config.LoadConfig,
		dbmysql.NewMySQL,
		realtime.NewHub,
		ProvideBroker,
		repository.NewConversationRepository,
		repository.NewMessageRepository,
		directory.NewDirectory,
		service.NewChatService,
		assignment.NewEngine,
		handler.NewSocketHandler,
		handler.NewChatHandler,
		wire.Struct(new(ChatApplication), "*"),
	)
	return &ChatApplication{}, nil
}

func InitializeMediaServer() (*MediaApplication, error) {
	wire.Build(
		config.LoadConfig,
		dbmongo.NewMongoConnection,
		media.NewHTTPServer,
		wire.Struct(new(MediaApplication), "*"),
	)
	return &MediaApplication{}, nil
}
