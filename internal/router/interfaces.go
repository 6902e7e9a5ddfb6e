// Package router implements the MQTT bridge (C12): it turns the core
// engine's upward device/endpoint signals into MQTT publishes, and
// MQTT subscriptions into calls against the engine's downward API. It
// is the only package that imports both internal/mqtt and
// internal/zigbee.
package router

import (
	"context"

	"zigcored/internal/mqtt"
	"zigcored/internal/types"
)

// MQTTRouter is the MQTT-facing half: publishing outward, and turning
// incoming topic messages into the typed requests the Bridge consumes.
type MQTTRouter interface {
	PublishDeviceMessage(devMsg mqtt.DeviceMessage)
	PublishDeviceDescription(devMsg mqtt.DeviceDescriptionMessage)
	PublishDevicesList(devices []mqtt.DeviceSummary)
	PublishGatewayStatus(permitJoin bool)

	SubscribeOnSetMessage(callback func(devCmd types.DeviceCommandMessage))
	SubscribeOnGetMessage(callback func(devCmd types.DeviceGetMessage))
	SubscribeOnExploreMessage(callback func(devCmd types.DeviceExploreMessage))
	SubscribeOnSetDeviceConfigMessage(callback func(devCmd types.DeviceConfigSetMessage))
	SubscribeOnGetDevicesMessage(callback func())
}

// Bridge is the zigbee-facing half: the engine's downward API calls
// and its upward event subscriptions, independent of the MQTT wire
// format.
type Bridge interface {
	ProcessSetMessage(ctx context.Context, devCmd types.DeviceCommandMessage)
	ProcessGetMessage(ctx context.Context, devCmd types.DeviceGetMessage)
	ProcessExploreMessage(ctx context.Context, devCmd types.DeviceExploreMessage)
	ProcessSetDeviceConfigMessage(ctx context.Context, devCmd types.DeviceConfigSetMessage)
	Devices() []mqtt.DeviceSummary

	SubscribeOnDeviceMessage(callback func(devMsg mqtt.DeviceMessage))
	SubscribeOnDeviceDescription(callback func(devMsg mqtt.DeviceDescriptionMessage))
}
