// Package app wires the dashboard server together: configuration,
// logging, telemetry, the snapshot store, the refresh pipeline and the
// HTTP/websocket surface.
//
// # Initialization Flow
//
// The typical startup sequence:
//
//  1. Load configuration from environment and config.yaml
//  2. Initialize logging and OpenTelemetry
//  3. Open the snapshot store and resolve the data directories
//  4. Build the refresh pipeline and the operations manager
//  5. Set up HTTP handlers and middleware
//  6. Start the server and the refresh scheduler
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM trigger a graceful shutdown: the scheduler stops,
// in-flight requests drain, and the snapshot store and telemetry
// providers are closed. Initialization and shutdown errors are returned
// to the caller; the package never calls os.Exit directly.
package app
