// Package startup drives a program from its command line to a running
// application.
//
// A Controller resolves the layered configuration, sets up the logging
// façade, checks that the host is supported and starts the application named
// by the umpkg, umname and umclass keys. Applications are linked into the
// program and made available through a Registry:
//
//	reg := startup.NewRegistry()
//	reg.Register(startup.EntryPoint{Package: "demo", Module: "dump", Class: "App"},
//		func() startup.Application { return &App{} })
//	code, err := startup.New(startup.Options{Registry: reg}).Run(ctx, os.Args[1:])
//
// Exit codes: 0 on success, interruption, --help and --version; 1 for an
// unsupported platform, a missing entry point or a configuration failure; 2
// for an application failure or a malformed command line. A positive code
// returned by the application is passed through.
package startup
