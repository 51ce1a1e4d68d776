package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/analystdb/internal/bridge"
	"github.com/nao1215/analystdb/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Serve the JSON HTTP API on server.addr. Requests share one store and run on
the bridge workers. With --dump-dir every table is exported when the server
stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			options, err := a.cfg.DumpOptions()
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd.Context(), dumpOnCloseOption(cmd, options)...)
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Store:       store,
				Invoker:     a.invoker(),
				Dispatcher:  bridge.NewDispatcher(a.cfg.Bridge.Workers, a.logger),
				DumpOptions: options,
				Addr:        a.cfg.Server.Addr,
				Logger:      a.logger,
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default: 127.0.0.1:8765)")
	cmd.Flags().String("dump-dir", "", "export every table to this directory on shutdown")
	cmd.Flags().String("format", "", "dump format (csv|tsv|ltsv|xlsx|parquet)")
	cmd.Flags().String("compression", "", "dump compression (none|gz|xz|zstd)")
	return cmd
}
