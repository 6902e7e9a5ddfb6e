// Package interview implements the device interview finite-state
// machine (C5): node descriptor -> active endpoints -> simple
// descriptors -> basic attributes -> IAS Zone enrollment.
package interview

import (
	"context"
	"fmt"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// Adapter is the narrow slice of the C9 contract the FSM needs.
type Adapter interface {
	NodeDescriptor(ctx context.Context, addr model.IEEEAddress) (NodeDescriptor, error)
	ActiveEndpoints(ctx context.Context, addr model.IEEEAddress) ([]model.EndpointID, error)
	SimpleDescriptor(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID) (SimpleDescriptor, error)
	ReadAttributes(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, attrIDs []uint16) (map[uint16]Attribute, error)
	WriteAttribute(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, attrID uint16, dataType byte, value []byte) error
	SendClusterCommand(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, cmdID byte, payload []byte) error
	IEEEAddress() model.IEEEAddress
}

// NodeDescriptor is the subset of the adapter's node descriptor
// response the FSM consumes.
type NodeDescriptor struct {
	LogicalType      model.LogicalType
	ManufacturerCode uint16
}

// SimpleDescriptor is the subset of the adapter's simple descriptor
// response the FSM consumes.
type SimpleDescriptor struct {
	ProfileID       uint16
	DeviceID        uint16
	InClusterList   []model.ClusterID
	OutClusterList  []model.ClusterID
}

// Attribute is a single decoded attribute value from a read-attributes
// response.
type Attribute struct {
	DataType byte
	Value    []byte
}

// TUYA-modelname quirk: these model names, once seen as the device's
// reported manufacturer name, get rewritten and promoted into
// modelName so downstream property setup keys off the real model.
var tuyaModelPromotion = map[string]bool{
	"TS0201": true,
	"TS0601": true,
	"TS0203": true,
}

const (
	interviewCIEAttr  uint16 = 0x0010
	interviewZoneType uint16 = 0x0000
	iasEnrollZoneID   byte   = 0x42
)

// FSM drives one device's interview to completion across repeated
// Step calls issued by the engine's per-device interview goroutine
// (Engine.startInterview).
type FSM struct {
	adapter Adapter
	log     logger.Logger

	onFinished func(device *model.Device)
	onError    func(device *model.Device, reason string)
}

func New(adapter Adapter, log logger.Logger, onFinished func(device *model.Device), onError func(device *model.Device, reason string)) *FSM {
	return &FSM{adapter: adapter, log: log, onFinished: onFinished, onError: onError}
}

// Step advances device's interview by exactly one phase. It returns
// true if a sub-request was launched (the caller should await the
// next adapter event/tick before calling Step again), or false if the
// interview failed (onError has already been invoked) or is already
// finished.
func (f *FSM) Step(ctx context.Context, device *model.Device) bool {
	if device.InterviewState == model.InterviewFinished {
		return false
	}

	if device.InterviewState < model.InterviewDescriptorReceived {
		desc, err := f.adapter.NodeDescriptor(ctx, device.IEEEAddress)
		if err != nil {
			f.fail(device, fmt.Sprintf("node descriptor request failed: %v", err))
			return false
		}
		device.LogicalType = desc.LogicalType
		device.ManufacturerCode = desc.ManufacturerCode
		device.InterviewState = model.InterviewDescriptorReceived
		return true
	}

	if device.InterviewState < model.InterviewEndpointsReceived {
		ids, err := f.adapter.ActiveEndpoints(ctx, device.IEEEAddress)
		if err != nil {
			f.fail(device, fmt.Sprintf("active endpoints request failed: %v", err))
			return false
		}
		for _, id := range ids {
			device.Endpoint(id)
		}
		device.InterviewState = model.InterviewEndpointsReceived
		return true
	}

	if ep, ok := device.EndpointMissingSimpleDescriptor(); ok {
		sd, err := f.adapter.SimpleDescriptor(ctx, device.IEEEAddress, ep.ID)
		if err != nil {
			f.fail(device, fmt.Sprintf("simple descriptor request failed for endpoint %d: %v", ep.ID, err))
			return false
		}
		ep.ProfileID = sd.ProfileID
		ep.DeviceID = sd.DeviceID
		ep.InClusterList = sd.InClusterList
		ep.OutClusterList = sd.OutClusterList
		ep.DescriptorReceived = true
		return true
	}

	if device.ManufacturerName == "" || device.ModelName == "" {
		ep, ok := device.BasicClusterEndpoint()
		if !ok {
			f.fail(device, "device has empty manufacturer name or model name")
			return false
		}
		attrs, err := f.adapter.ReadAttributes(ctx, device.IEEEAddress, ep.ID, model.ClusterBasic, []uint16{0x0001, 0x0004, 0x0005, 0x0007})
		if err != nil {
			f.fail(device, fmt.Sprintf("basic attributes read failed: %v", err))
			return false
		}
		f.applyBasicAttributes(device, attrs)

		if device.ManufacturerName == "" || device.ModelName == "" {
			f.fail(device, "device has empty manufacturer name or model name")
			return false
		}
		f.applyTUYAModelQuirk(device)
		return true
	}

	if ep, ok := f.nextIASStep(device); ok {
		return f.stepIAS(ctx, device, ep)
	}

	f.finish(device)
	return false
}

func (f *FSM) applyBasicAttributes(device *model.Device, attrs map[uint16]Attribute) {
	if a, ok := attrs[0x0004]; ok {
		device.ManufacturerName = string(a.Value)
	}
	if a, ok := attrs[0x0005]; ok {
		device.ModelName = string(a.Value)
	}
	if a, ok := attrs[0x0007]; ok && len(a.Value) >= 1 {
		device.PowerSource = a.Value[0]
	}
	if a, ok := attrs[0x0001]; ok && len(a.Value) == 4 {
		device.FirmwareVersion = zclcodec.LittleEndianUint32(a.Value)
	}
}

func (f *FSM) applyTUYAModelQuirk(device *model.Device) {
	if !tuyaModelPromotion[device.ManufacturerName] {
		return
	}
	promoted := device.ManufacturerName
	device.ManufacturerName = "TUYA"
	device.ModelName = promoted
}

// nextIASStep returns the first IAS Zone endpoint not yet Enrolled, or
// (nil, false) if every IAS Zone endpoint has converged.
func (f *FSM) nextIASStep(device *model.Device) (*model.Endpoint, bool) {
	for _, ep := range device.IASZoneEndpoints() {
		if ep.ZoneStatus != model.ZoneStatusEnrolled {
			return ep, true
		}
	}
	return nil, false
}

func (f *FSM) stepIAS(ctx context.Context, device *model.Device, ep *model.Endpoint) bool {
	switch ep.ZoneStatus {
	case model.ZoneStatusUnknown:
		_, err := f.adapter.ReadAttributes(ctx, device.IEEEAddress, ep.ID, model.ClusterIASZone, []uint16{interviewZoneType, interviewCIEAttr})
		if err != nil {
			f.fail(device, fmt.Sprintf("IAS zone attributes read failed: %v", err))
			return false
		}
		ep.ZoneStatus = model.ZoneStatusSetAddress
		return true

	case model.ZoneStatusSetAddress:
		cie := uint64(f.adapter.IEEEAddress())
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(cie >> (8 * i))
		}
		err := f.adapter.WriteAttribute(ctx, device.IEEEAddress, ep.ID, model.ClusterIASZone, interviewCIEAttr, zclcodec.DataTypeIEEEAddress, buf)
		if err != nil {
			f.fail(device, fmt.Sprintf("IAS CIE address write failed: %v", err))
			return false
		}
		// Write-attributes-response transitions zoneStatus to Enroll
		// asynchronously (C6 GlobalCommandReceived); this phase only
		// launches the write.
		return true

	case model.ZoneStatusEnroll:
		payload := []byte{0x00, iasEnrollZoneID}
		err := f.adapter.SendClusterCommand(ctx, device.IEEEAddress, ep.ID, model.ClusterIASZone, 0x00, payload)
		if err != nil {
			f.fail(device, fmt.Sprintf("IAS zone enroll response failed: %v", err))
			return false
		}
		if _, err := f.adapter.ReadAttributes(ctx, device.IEEEAddress, ep.ID, model.ClusterIASZone, []uint16{interviewZoneType, interviewCIEAttr}); err != nil {
			f.fail(device, fmt.Sprintf("IAS zone re-read failed: %v", err))
			return false
		}
		ep.ZoneStatus = model.ZoneStatusEnrolled
		return true

	default:
		return true
	}
}

func (f *FSM) fail(device *model.Device, reason string) {
	f.log.Warn("interview failed for device %016X: %v", uint64(device.IEEEAddress), reason)
	if f.onError != nil {
		f.onError(device, reason)
	}
}

func (f *FSM) finish(device *model.Device) {
	device.InterviewState = model.InterviewFinished
	f.log.Info("interview finished for device %016X (%s %s)", uint64(device.IEEEAddress), device.ManufacturerName, device.ModelName)
	if f.onFinished != nil {
		f.onFinished(device)
	}
}
