package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/gvillage/startupapp/internal/startup"
)

// Version is set at build time.
var Version string

func main() {
	registry := startup.NewRegistry()
	registry.Register(dumpEntryPoint, func() startup.Application {
		return &dump{out: os.Stdout}
	})

	controller := startup.New(startup.Options{
		Program:  startup.Program{Version: Version},
		Registry: registry,
		Progress: term.IsTerminal(int(os.Stderr.Fd())),
	})
	code, err := controller.Run(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
	os.Exit(code)
}
