// Package shutdown runs named cleanup hooks once when the CLI exits and
// turns SIGINT/SIGTERM into context cancellation.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown("close token store", func(ctx context.Context) error { return engine.Close() })
//	ctx, stop := h.NotifyContext(context.Background())
//	defer stop()
//	defer h.Shutdown()
package shutdown
