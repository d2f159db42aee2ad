package remote

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Register runs srv for the lifetime of the fx app. The app is shut down
// when the peer closes the link or the server gives up reconnecting.
func Register(srv *Server, lifecycle fx.Lifecycle, shutdowner fx.Shutdowner, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)

				if err := srv.Serve(ctx); err != nil {
					logger.With(zap.Error(err)).Error("serve")
				}
				if ctx.Err() == nil {
					if err := shutdowner.Shutdown(); err != nil {
						logger.With(zap.Error(err)).Warn("shutdown")
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
