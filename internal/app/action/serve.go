package action

import (
	"context"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/console"
	"github.com/urfave/cli/v3"
)

func ServeCommand(version string) *cli.Command {
	cmd := &cli.Command{
		Name:        "serve",
		Description: "Start the game server (auth API, admin API and the realtime websocket)",
	}

	cmd.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "console-addr",
			Value: defaultConsoleAddr,
			Usage: "Bind address for the server",
		},
		&cli.StringFlag{
			Name:  "console-public-addr",
			Value: defaultPublicConsoleAddr,
			Usage: "Public address advertised to game clients",
		},
		&cli.StringSliceFlag{
			Name:  "cors-allowed-origins",
			Value: []string{"*"},
			Usage: "List of origins a cross-domain request can be executed from",
		},
		&cli.StringFlag{
			Name:  "database-type",
			Value: defaultDatabaseType,
			Usage: "Database type (memory, sqlite)",
		},
		&cli.StringFlag{
			Name:  "sqlite-path",
			Value: defaultDatabasePath,
			Usage: "Path to the sqlite database file",
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Value:   defaultJWTSecret,
			Usage:   "Secret used to sign and verify session tokens",
			Sources: cli.EnvVars("TACTICS_JWT_SECRET"),
		},
	}

	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		db, err := selectDatabaseType(c)
		if err != nil {
			return err
		}
		defer db.Close()

		con := console.NewConsole(db, selectConsoleOptions(c, version)...)

		start, shutdown := con.Handlers()
		return con.Graceful(ctx, start, shutdown)
	}

	return cmd
}
