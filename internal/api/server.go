package api

import (
	"drzewo-plikow/internal/config"
	"drzewo-plikow/internal/database"
	"drzewo-plikow/internal/storage"
)

type Server struct {
	config  *config.Config
	store   *database.Store
	storage *storage.LocalStorage
}

func NewServer(cfg *config.Config, store *database.Store, storage *storage.LocalStorage) *Server {
	return &Server{
		config:  cfg,
		store:   store,
		storage: storage,
	}
}
