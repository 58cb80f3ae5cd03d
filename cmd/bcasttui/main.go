package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/bcast/internal/app"
	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/lock"
	"github.com/matheus3301/bcast/internal/paths"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	homeFlag := flag.String("home", "", "data directory (default $BCAST_HOME or ~/.bcast)")
	flag.Parse()

	if err := run(paths.Resolve(*homeFlag)); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) && held.Addr != "" {
			fmt.Fprintf(os.Stderr, "error: bcastd (PID %d) already owns this data dir; use bcastctl --addr %s\n", held.PID, held.Addr)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run starts the core services in-process and drives them from the
// dashboard. The dashboard owns the terminal, so nothing is logged to stderr.
func run(home string) error {
	var (
		cs     *contacts.Store
		ts     *templates.Store
		ctrl   *broadcast.Controller
		b      *bus.Bus
		logger *zap.Logger
	)
	core := fx.New(
		app.Core(app.Params{Home: home, Binary: "bcasttui"}),
		fx.Populate(&cs, &ts, &ctrl, &b, &logger),
	)
	if err := core.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := core.Start(startCtx); err != nil {
		return err
	}

	runErr := tui.NewApp(tui.Params{
		Contacts:  cs,
		Templates: ts,
		Broadcast: ctrl,
		Bus:       b,
		Logger:    logger.Named("tui"),
	}).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return errors.Join(runErr, core.Stop(stopCtx))
}
