package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz in the browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := rt.cfg.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		srv := server.New(server.Options{
			Service:  rt.service("web"),
			Settings: rt.cfg.Settings(),
			Logger:   rt.logger,
		})

		fmt.Printf("Quizchat listening on %s\n", addr)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080, overrides QUIZCHAT_ADDR)")
}
