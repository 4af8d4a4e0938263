package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailroom/internal/api"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			if listen == "" {
				listen = env.cfg.API.Listen
			}

			app := api.NewApp(env.svc, env.log)
			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(listen)
			}()
			env.log.WithField("listen", listen).Info("api listening")

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			env.log.Info("api shutting down")
			return app.ShutdownWithContext(ctx)
		},
	}
	cmd.Flags().String("listen", "", "Address to listen on (default from config)")
	return cmd
}
