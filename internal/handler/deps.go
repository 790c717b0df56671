package handler

import (
	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/app/storage"
	"github.com/aryankinha/chattingAPP/internal/configs"
)

// AppDeps bundles the shared dependencies injected into every handler.
type AppDeps struct {
	Hub            *chat.Hub
	Store          chat.Store
	Config         *configs.AppConfig
	StorageService storage.StorageService
}
