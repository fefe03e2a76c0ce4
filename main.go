package main

import "github.com/ViewsFromSaturn/Project-Tactics/internal/app"

// Overridden at build time with ldflags.
var (
	version = "dev"
	commit  = ""
	date    = "unknown"
)

func main() {
	app.NewApp(version, commit, date)
}
