package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by lumicore.
const (
	// MeasurementParam holds one point per parameter change. Fields depend
	// on the kind: "value" for scalars, "range_value" and "tweak" for enums,
	// "hue", "weight" and the rgb components for colors.
	MeasurementParam = "param_values"

	// MeasurementDevice holds per-device counters (param count, metadata
	// key count) written alongside parameter points.
	MeasurementDevice = "device_stats"
)

// ParamPoint builds the point for one parameter sample.
//
// Tags: site, device_id, param, kind. Tag cardinality is bounded by the
// rig's fixture list.
func ParamPoint(site, deviceID, param, kind string, fields map[string]any, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementParam,
		map[string]string{
			"site":      site,
			"device_id": deviceID,
			"param":     param,
			"kind":      kind,
		},
		fields, ts)
}

// WriteParam queues a parameter sample. Dropped silently once closed.
//
// Example:
//
//	client.WriteParam("spot-1", "dimmer", "float", map[string]any{"value": 0.8}, time.Now())
func (c *Client) WriteParam(deviceID, param, kind string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}
	c.writeAPI.WritePoint(ParamPoint(c.site, deviceID, param, kind, fields, ts))
}

// WriteDeviceStats queues the device-level counters.
func (c *Client) WriteDeviceStats(deviceID string, params, metadataKeys int, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(MeasurementDevice,
		map[string]string{"site": c.site, "device_id": deviceID},
		map[string]any{"params": params, "metadata_keys": metadataKeys},
		ts))
}
