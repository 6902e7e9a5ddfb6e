// Package types carries the decoded shapes the MQTT bridge (C12)
// passes between its MQTT-facing and zigbee-facing halves, independent
// of both the wire JSON (package mqtt) and the core's own model
// package.
package types

// DeviceCommandMessage is a decoded "set" request: Commands maps an
// action name (as registered on the target endpoint by the device
// profile, e.g. "state", "brightness", "Color") to its argument.
type DeviceCommandMessage struct {
	IEEEAddress uint64
	Endpoint    uint8
	Commands    map[string]interface{}
}

// DeviceGetMessage is a decoded "get" request: a raw attribute read
// against one cluster, for the cases a registered action/property
// does not cover.
type DeviceGetMessage struct {
	IEEEAddress uint64
	ClusterID   uint16
	Endpoint    uint8
	Attributes  []uint16
}

// DeviceExploreMessage asks the bridge to re-describe a device's
// endpoints and cluster lists.
type DeviceExploreMessage struct {
	IEEEAddress uint64
}

// DeviceConfigSetMessage carries a runtime gateway setting change.
type DeviceConfigSetMessage struct {
	PermitJoin bool
}
