package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/leetprob/internal/predict"
	"github.com/abhisek/leetprob/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over a local HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		latest := predict.NewLatestSink()
		d, err := openDeps(cmd, latest)
		if err != nil {
			return err
		}
		defer d.Close()

		addr := d.cfg.ServerAddr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		return server.New(d.predictor, latest, d.logger).Listen(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
