// Package api implements the read-only HTTP API and WebSocket change feed
// for lumicore.
//
// This package provides:
//   - REST endpoints for listing devices, reading one device or parameter,
//     and reading a device's recorded history
//   - Prometheus exposition of the process registry
//   - A WebSocket hub that relays device events to subscribed clients
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// Devices are changed through MQTT set commands or by the owning process.
// The API only reads: it serves snapshots from the device registry and the
// history repository, while the Hub is attached to the sink dispatcher and
// pushes every committed change to WebSocket clients.
//
//	device.Registry ──▶ sinks.Dispatcher ──▶ api.Hub ──▶ ws clients
//	       ▲
//	       └──────── GET /api/v1/devices[/{id}]
//
// # Change feed
//
// Clients start with no subscriptions:
//
//	→ {"op": "subscribe", "id": "1", "channels": ["device.params"]}
//	← {"type": "ack", "id": "1", "channels": ["device.params"], ...}
//	← {"type": "event", "channel": "device.params", "device_id": "spot1", "device": {...}, ...}
//
// # Graceful Degradation
//
// History and health checks are optional. Without a history repository the
// history endpoint answers 503; readiness reports each configured checker.
package api
