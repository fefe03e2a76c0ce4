package action

import (
	"fmt"
	"log/slog"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/database"
	"github.com/urfave/cli/v3"
)

func selectDatabaseType(c *cli.Command) (*database.SQLite, error) {
	switch c.String("database-type") {
	case "memory":
		db, err := database.NewMemory()
		if err != nil {
			return nil, err
		}
		if err := database.Seed(db.Write); err != nil {
			slog.Warn("Could not seed the database", logging.Error(err))
		}
		return db, nil
	case "sqlite":
		return database.NewLocal(c.String("sqlite-path"))
	default:
		return nil, fmt.Errorf("unknown database type: %q", c.String("database-type"))
	}
}

func selectConsoleOptions(c *cli.Command, version string) []console.Option {
	consoleAddr := fallbackString(c.String("console-addr"), defaultConsoleAddr)
	publicAddr := fallbackString(c.String("console-public-addr"), fmt.Sprintf("http://%s", consoleAddr))

	return []console.Option{
		console.WithConsoleAddr(consoleAddr, publicAddr),
		console.WithCORSAllowedOrigins(c.StringSlice("cors-allowed-origins")),
		console.WithJWTSecret(fallbackString(c.String("jwt-secret"), defaultJWTSecret)),
		console.WithVersion(version),
	}
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
