package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizchat/internal/app"
	"github.com/abhisek/quizchat/internal/screen"
)

// runApp builds dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	env := screen.NewEnv(cmd.Context(), rt.service("tui"), rt.cfg.Settings())
	env.SaveSettings = rt.saveSettings

	return app.Run(cmd.Context(), env)
}
