package main

import (
	"flag"

	"github.com/matheus3301/bcast/internal/app"
	"github.com/matheus3301/bcast/internal/paths"
	"go.uber.org/fx"
)

func main() {
	homeFlag := flag.String("home", "", "data directory (default $BCAST_HOME or ~/.bcast)")
	listenFlag := flag.String("listen", "", "HTTP listen address (overrides server.listen)")
	flag.Parse()

	fx.New(
		app.Daemon(app.Params{
			Home:    paths.Resolve(*homeFlag),
			Binary:  "bcastd",
			Console: true,
			Listen:  *listenFlag,
		}),
	).Run()
}
