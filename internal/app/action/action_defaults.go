package action

import "fmt"

var (
	// Console
	defaultConsoleAddr       = "127.0.0.1:2137"
	defaultPublicConsoleAddr = fmt.Sprintf("http://%s", defaultConsoleAddr)

	// SQLite config
	defaultDatabasePath = "project-tactics.sqlite"
	defaultDatabaseType = "memory"

	// Realtime auth
	defaultJWTSecret = "dev-secret-change-me"
)
