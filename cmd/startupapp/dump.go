package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gvillage/startupapp/internal/conf"
	"github.com/gvillage/startupapp/internal/startup"
)

// dumpEntryPoint is selected with umpkg=startupapp, umname=dump and
// umclass=Dump.
var dumpEntryPoint = startup.EntryPoint{Package: "startupapp", Module: "dump", Class: "Dump"}

// dump prints the resolved configuration with the origin of every entry.
type dump struct {
	out io.Writer
}

func (d *dump) Run(ctx context.Context, cfg conf.ConfigMap) (int, error) {
	w := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for _, e := range cfg.Entries() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		lock := ""
		if !e.Overridable {
			lock = "final"
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", e.Key, e.Value, e.Origin, lock)
	}
	if err := w.Flush(); err != nil {
		return 1, err
	}
	return 0, nil
}
