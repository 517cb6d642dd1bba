package handler

import (
	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/storage"
	"chatrelay/internal/app/store"
	"chatrelay/internal/configs"
)

type AppDeps struct {
	Hub     *chat.Hub
	Config  *configs.AppConfig
	Store   store.Store
	Storage storage.ClipStorage
}
