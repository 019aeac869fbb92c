package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eyalcha/kan-program/cmd/kanprogram/cmds"
)

func main() {
	if err := cmds.NewRootCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
}
