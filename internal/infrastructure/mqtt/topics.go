package mqtt

import (
	"fmt"
	"strings"
)

// TopicRoot is the first level of every lumicore topic.
const TopicRoot = "lumicore"

// Device topic leaves.
const (
	LeafState    = "state"
	LeafMetadata = "metadata"
	LeafSet      = "set"
)

// Topics builds topics scoped to one site:
//
//	lumicore/{site}/devices/{id}/state      retained device document
//	lumicore/{site}/devices/{id}/metadata   retained metadata map
//	lumicore/{site}/devices/{id}/set        inbound parameter updates
//	lumicore/{site}/system/status           retained online/offline status
type Topics struct {
	Site string
}

func (t Topics) base() string {
	return TopicRoot + "/" + t.Site
}

// DeviceState returns the retained state topic for a device.
//
// Example: lumicore/rig-001/devices/spot-1/state
func (t Topics) DeviceState(deviceID string) string {
	return t.device(deviceID, LeafState)
}

// DeviceMetadata returns the retained metadata topic for a device.
func (t Topics) DeviceMetadata(deviceID string) string {
	return t.device(deviceID, LeafMetadata)
}

// DeviceSet returns the topic a device accepts parameter updates on.
func (t Topics) DeviceSet(deviceID string) string {
	return t.device(deviceID, LeafSet)
}

func (t Topics) device(deviceID, leaf string) string {
	return fmt.Sprintf("%s/devices/%s/%s", t.base(), deviceID, leaf)
}

// AllDeviceSets matches the set topic of every device on the site.
func (t Topics) AllDeviceSets() string {
	return t.device("+", LeafSet)
}

// SystemStatus is where the client announces itself; also its LWT topic.
func (t Topics) SystemStatus() string {
	return t.base() + "/system/status"
}

// ParseDeviceTopic splits a device topic of this site into device ID and
// leaf. ok is false for topics outside lumicore/{site}/devices/.
func (t Topics) ParseDeviceTopic(topic string) (deviceID, leaf string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.base()+"/devices/")
	if !found {
		return "", "", false
	}
	deviceID, leaf, found = strings.Cut(rest, "/")
	if !found || deviceID == "" || leaf == "" || strings.Contains(leaf, "/") {
		return "", "", false
	}
	return deviceID, leaf, true
}
