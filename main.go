package main

import (
	"github.com/simon/jobmux/cmd"
	jotel "github.com/simon/jobmux/internal/otel"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit)
	jotel.Version = version
	cmd.Execute()
}
