// Package app wires the application together: configuration, logging,
// metrics, the WebSocket hub, the session store and the HTTP server,
// plus graceful shutdown.
//
// The initialization sequence:
//
//	1. Load configuration from the YAML file and environment
//	2. Initialize the structured logger
//	3. Create the metrics registry, hub and session store
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//
// The main entry point is typically:
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
