package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/internal/server"
	"github.com/matzehuels/campaignkit/pkg/config"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the studio over a JSON HTTP API",
		Long: `Serve exposes one studio session over HTTP: design settings and assets,
the live preview, the draft, dispatch and the campaign archive.

Dispatch links open on the machine running the server unless the config
selects the log or queue navigator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var listen string
			st, err := c.openStudio(cmd.Context(), func(cfg *config.Config) {
				listen = cfg.Server.Addr
				if addr != "" {
					listen = addr
				}
			})
			if err != nil {
				return err
			}
			defer st.Close()

			printInfo("Serving on %s", StyleLink.Render(listen))
			return server.New(st, c.Logger.WithPrefix("http")).ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
