package router

import (
	"context"
	"fmt"

	"zigcored/internal/db"
	"zigcored/internal/logger"
	"zigcored/internal/mqtt"
	"zigcored/internal/types"
	"zigcored/internal/utils"
	"zigcored/internal/zigbee"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// colorXYArgs is filled by utils.SetStructProperties from the "Color"
// entry of a set request's Commands map, the one action whose
// argument carries more than a single scalar.
type colorXYArgs struct {
	X float64
	Y float64
}

// bridge is the zigbee-facing half of the MQTT bridge (C12): it owns
// no MQTT state of its own, translating the engine's downward API and
// upward signals to and from the types package's decoded shapes.
type bridge struct {
	engine *zigbee.Engine
	db     db.DeviceDB
	log    logger.Logger

	onDeviceMessage     func(devMsg mqtt.DeviceMessage)
	onDeviceDescription func(devMsg mqtt.DeviceDescriptionMessage)
}

// NewBridge builds the bridge without an engine attached yet; the
// caller completes wiring with AttachEngine once the engine exists,
// since the engine's own constructor takes the bridge's event
// callbacks as arguments.
func NewBridge(database db.DeviceDB, log logger.Logger) *bridge {
	return &bridge{db: database, log: log}
}

// AttachEngine completes the two-phase wiring main.go needs: the
// bridge's HandleDeviceEvent/HandleEndpointUpdated methods are handed
// to zigbee.New before the *Engine it returns exists.
func (b *bridge) AttachEngine(e *zigbee.Engine) { b.engine = e }

// HandleDeviceEvent is passed to zigbee.New as onDeviceEvent: it
// persists the device record on join/leave/interview transitions and
// republishes the device's current properties whenever the interview
// finishes, so a device that was offline during interview still ends
// up with a first state publish.
func (b *bridge) HandleDeviceEvent(device *model.Device, kind string) {
	switch kind {
	case "deviceLeft":
		if b.db != nil {
			if err := b.db.DeleteDevice(context.Background(), uint64(device.IEEEAddress)); err != nil {
				b.log.Warn("delete device record 0x%016X: %v", uint64(device.IEEEAddress), err)
			}
		}
	case "interviewFinished":
		b.persist(device)
		for _, ep := range device.Endpoints {
			b.publishEndpointState(device, ep)
		}
	default:
		b.persist(device)
	}
}

// HandleEndpointUpdated is passed to zigbee.New as onEndpointUpdated:
// every endpoint whose properties changed value gets republished and
// the device record re-persisted.
func (b *bridge) HandleEndpointUpdated(device *model.Device, ep *model.Endpoint) {
	b.persist(device)
	b.publishEndpointState(device, ep)
}

func (b *bridge) persist(device *model.Device) {
	if b.db == nil {
		return
	}
	if err := b.db.SaveDevice(context.Background(), db.NewDeviceRecord(device)); err != nil {
		b.log.Warn("persist device 0x%016X: %v", uint64(device.IEEEAddress), err)
	}
}

func (b *bridge) publishEndpointState(device *model.Device, ep *model.Endpoint) {
	if b.onDeviceMessage == nil || len(ep.Properties) == 0 {
		return
	}
	props := make(map[string]interface{}, len(ep.Properties))
	for _, p := range ep.Properties {
		props[p.Name()] = p.Value()
	}
	b.onDeviceMessage(mqtt.DeviceMessage{
		IEEEAddress: uint64(device.IEEEAddress),
		Message:     mqtt.DeviceStateMessage{ClusterID: 0, Properties: props},
	})
}

func (b *bridge) SubscribeOnDeviceMessage(callback func(devMsg mqtt.DeviceMessage)) {
	b.onDeviceMessage = callback
}

func (b *bridge) SubscribeOnDeviceDescription(callback func(devMsg mqtt.DeviceDescriptionMessage)) {
	b.onDeviceDescription = callback
}

// ProcessSetMessage resolves each entry of devCmd.Commands against the
// target endpoint's registered actions. "Color" is the one action
// whose argument is a sub-object rather than a scalar; every other key
// is handed to Engine.DeviceAction as-is.
func (b *bridge) ProcessSetMessage(ctx context.Context, devCmd types.DeviceCommandMessage) {
	ieee := model.IEEEAddress(devCmd.IEEEAddress)
	ep := model.EndpointID(devCmd.Endpoint)

	for actionName, arg := range devCmd.Commands {
		var resolved interface{} = arg

		if actionName == "Color" {
			if raw, ok := arg.(map[string]interface{}); ok {
				var args colorXYArgs
				utils.SetStructProperties(raw, &args)
				resolved = [2]float64{args.X, args.Y}
			}
			actionName = "colorXY"
		}

		if err := b.engine.DeviceAction(ctx, ieee, ep, actionName, resolved); err != nil {
			b.log.Warn("device action %q on 0x%016X failed: %v", actionName, devCmd.IEEEAddress, err)
		}
	}
}

// ProcessGetMessage performs a raw synchronous attribute read and
// republishes the result under the same device-state shape a property
// report would use, keyed by "0x{attrID}" rather than a property name
// since no property claimed these attributes.
func (b *bridge) ProcessGetMessage(ctx context.Context, devCmd types.DeviceGetMessage) {
	attrs, err := b.engine.ReadAttributes(ctx, model.IEEEAddress(devCmd.IEEEAddress), model.EndpointID(devCmd.Endpoint), model.ClusterID(devCmd.ClusterID), devCmd.Attributes)
	if err != nil {
		b.log.Warn("read attributes on 0x%016X cluster 0x%04X failed: %v", devCmd.IEEEAddress, devCmd.ClusterID, err)
		return
	}

	props := make(map[string]interface{}, len(attrs))
	for attrID, attr := range attrs {
		props[fmt.Sprintf("0x%04X", attrID)] = decodeZCLValue(attr.DataType, attr.Value)
	}

	if b.onDeviceMessage != nil {
		b.onDeviceMessage(mqtt.DeviceMessage{
			IEEEAddress: devCmd.IEEEAddress,
			Message:     mqtt.DeviceStateMessage{ClusterID: devCmd.ClusterID, Properties: props},
		})
	}
}

// ProcessExploreMessage answers an "explore" request from the live
// catalogue entry, naming every property and action each endpoint
// carries alongside its raw descriptor fields.
func (b *bridge) ProcessExploreMessage(ctx context.Context, devCmd types.DeviceExploreMessage) {
	device := b.engine.Catalogue().Get(model.IEEEAddress(devCmd.IEEEAddress))
	if device == nil {
		b.log.Warn("explore requested for unknown device 0x%016X", devCmd.IEEEAddress)
		return
	}

	out := mqtt.DeviceDescriptionMessage{
		IEEEAddress:      devCmd.IEEEAddress,
		LogicalType:      uint8(device.LogicalType),
		ManufacturerName: device.ManufacturerName,
		ModelName:        device.ModelName,
		ManufacturerCode: device.ManufacturerCode,
	}

	for _, ep := range device.Endpoints {
		desc := mqtt.EndpointDescription{
			Endpoint:       uint8(ep.ID),
			ProfileID:      ep.ProfileID,
			DeviceID:       ep.DeviceID,
			InClusterList:  toUint16s(ep.InClusterList),
			OutClusterList: toUint16s(ep.OutClusterList),
		}
		for _, p := range ep.Properties {
			desc.Properties = append(desc.Properties, p.Name())
		}
		for _, a := range ep.Actions {
			desc.Actions = append(desc.Actions, a.Name)
		}
		out.Endpoints = append(out.Endpoints, desc)
	}

	if b.onDeviceDescription != nil {
		b.onDeviceDescription(out)
	}
}

func (b *bridge) ProcessSetDeviceConfigMessage(ctx context.Context, devCmd types.DeviceConfigSetMessage) {
	if err := b.engine.SetPermitJoin(ctx, devCmd.PermitJoin); err != nil {
		b.log.Warn("set permit join failed: %v", err)
	}
}

func (b *bridge) Devices() []mqtt.DeviceSummary {
	devices := b.engine.Catalogue().All()
	out := make([]mqtt.DeviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, mqtt.DeviceSummary{
			IEEEAddress:       uint64(d.IEEEAddress),
			NetworkAddress:    uint16(d.NetworkAddress),
			ManufacturerName:  d.ManufacturerName,
			ModelName:         d.ModelName,
			InterviewFinished: d.InterviewState == model.InterviewFinished,
		})
	}
	return out
}

func toUint16s(ids []model.ClusterID) []uint16 {
	out := make([]uint16, len(ids))
	for i, id := range ids {
		out[i] = uint16(id)
	}
	return out
}

// decodeZCLValue turns a raw attribute record's data-type tag and
// value bytes into a JSON-friendly Go value, for the attributes no
// registered property claimed.
func decodeZCLValue(dataType byte, value []byte) interface{} {
	switch dataType {
	case zclcodec.DataTypeBoolean:
		if len(value) == 1 {
			return value[0] != 0
		}
	case zclcodec.DataTypeUint8, zclcodec.DataTypeEnum8, zclcodec.DataTypeBitmap8:
		if len(value) == 1 {
			return value[0]
		}
	case zclcodec.DataTypeInt8:
		if len(value) == 1 {
			return int8(value[0])
		}
	case zclcodec.DataTypeUint16:
		if len(value) == 2 {
			return zclcodec.LittleEndianUint16(value)
		}
	case zclcodec.DataTypeInt16:
		if len(value) == 2 {
			return int16(zclcodec.LittleEndianUint16(value))
		}
	case zclcodec.DataTypeUint32, zclcodec.DataTypeUTCTime:
		if len(value) == 4 {
			return zclcodec.LittleEndianUint32(value)
		}
	case zclcodec.DataTypeInt32:
		if len(value) == 4 {
			return int32(zclcodec.LittleEndianUint32(value))
		}
	case zclcodec.DataTypeCharacterStr, zclcodec.DataTypeOctetStr:
		return string(value)
	}
	return value
}
