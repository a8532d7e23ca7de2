// Package influxdb records parameter telemetry in InfluxDB v2.
//
// Every parameter change becomes a point in the param_values measurement,
// so a lighting programmer can chart a fixture's dimmer curve or color
// hue across a show. Writes are batched and non-blocking; failures arrive
// asynchronously through SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteParam("spot-1", "dimmer", "float", map[string]any{"value": 0.8}, time.Now())
package influxdb
