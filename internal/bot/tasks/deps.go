// Package tasks implements scheduled maintenance tasks for the file
// relay bot.
package tasks

import (
	"log/slog"

	"github.com/filerelay/filerelay/internal/config"
	"github.com/filerelay/filerelay/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
