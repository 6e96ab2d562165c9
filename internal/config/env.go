package config

import (
	"github.com/efinel/node-red/internal/store"
	"github.com/efinel/node-red/pkg/database"
	"github.com/efinel/node-red/pkg/logging"
)

var loggingEnv = &logging.Env{
	Level:  "LIBRARY_LOG_LEVEL",
	Format: "LIBRARY_LOG_FORMAT",
}

var storageEnv = &store.Env{
	Backend:      "LIBRARY_STORAGE_BACKEND",
	BasePath:     "LIBRARY_STORAGE_BASE_PATH",
	MaxEntrySize: "LIBRARY_STORAGE_MAX_ENTRY_SIZE",
}

var databaseEnv = &database.Env{
	Host:            "LIBRARY_DATABASE_HOST",
	Port:            "LIBRARY_DATABASE_PORT",
	Name:            "LIBRARY_DATABASE_NAME",
	User:            "LIBRARY_DATABASE_USER",
	Password:        "LIBRARY_DATABASE_PASSWORD",
	SSLMode:         "LIBRARY_DATABASE_SSL_MODE",
	MaxOpenConns:    "LIBRARY_DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "LIBRARY_DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "LIBRARY_DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "LIBRARY_DATABASE_CONN_TIMEOUT",
}
