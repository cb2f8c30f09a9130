package main

import (
	"context"
	"os"

	"github.com/portscout/portscout/cmd/portscout/commands"
)

func main() {
	cmd := commands.NewCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
