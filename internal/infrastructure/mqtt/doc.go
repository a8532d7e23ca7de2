// Package mqtt connects lumicore to an MQTT broker.
//
// Device state leaves the process as retained JSON documents, and
// parameter updates for a device can arrive on its set topic:
//
//	device.Registry ─▶ sinks.StatePublisher ─▶ lumicore/{site}/devices/{id}/state
//	lumicore/{site}/devices/{id}/set ─▶ sinks.CommandHandler ─▶ device.Device
//
// The client publishes a retained online status on connect and registers
// an offline status as its Last Will, so consoles can tell when the rig
// controller disappears.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) outside a closed lighting network
//   - Set credentials via LUMICORE_MQTT_USERNAME / LUMICORE_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(client.Topics().DeviceState("spot-1"), doc)
package mqtt
