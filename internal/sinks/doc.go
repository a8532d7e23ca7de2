// Package sinks carries committed device changes out of the process.
//
// A Dispatcher subscribes to each device's parameter and metadata
// registries and hands every event to a fixed list of sinks:
//
//   - StatePublisher mirrors device documents to retained MQTT topics
//   - TelemetryRecorder writes changed parameters to InfluxDB
//   - HistoryRecorder snapshots documents into the SQLite history table
//   - Metrics counts events for Prometheus
//
// The API's WebSocket hub implements Sink as well and is passed to the
// same Dispatcher.
//
// CommandHandler goes the other way, applying parameter updates that
// arrive on a device's MQTT set topic.
//
// Sinks run inside device notification delivery and therefore on the
// goroutine that made the change. Anything that talks to the network
// queues its work; StatePublisher.Run drains that queue.
//
// # Usage
//
//	dispatcher := sinks.NewDispatcher(logger, publisher, telemetry, history, metrics)
//	h := dispatcher.Follow(registry)
//	defer registry.Unwatch(h)
package sinks
