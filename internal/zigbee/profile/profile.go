// Package profile is the (manufacturerName, modelName) registration
// hook the catalogue calls through model.Setup: it decides which
// Property/Reporting/Action objects a freshly interviewed device
// carries, based on the clusters its endpoints actually advertise plus
// a small table of vendor overrides for the quirky dialects the
// property package already knows how to parse.
package profile

import (
	"sync/atomic"

	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// Standard ZCL clusters the generic mapper reasons about beyond the
// handful model already names.
const (
	clusterPowerConfig  model.ClusterID = 0x0001
	clusterOnOff        model.ClusterID = 0x0006
	clusterLevelControl model.ClusterID = 0x0008
	clusterColorControl model.ClusterID = 0x0300
	clusterTemperature  model.ClusterID = 0x0402
	clusterIlluminance  model.ClusterID = 0x0400
	clusterHumidity     model.ClusterID = 0x0405
	clusterOccupancy    model.ClusterID = 0x0406
)

// Setup implements model.Setup. It always runs the generic cluster-
// based attachment first, then layers a vendor override on top keyed
// by ManufacturerName, matching the source's "generic plus vendor
// quirk" device catalogue shape.
func Setup(device *model.Device) {
	for _, ep := range device.Endpoints {
		attachGeneric(ep)
		attachReportings(ep)
	}
	if override, ok := vendorOverrides[device.ManufacturerName]; ok {
		override(device)
	}
}

// attachGeneric adds the property/action pair implied by each standard
// cluster the endpoint's simple descriptor advertised, skipping
// properties and actions already present by name (re-running Setup on
// an already-configured device must not duplicate entries).
func attachGeneric(ep *model.Endpoint) {
	add := func(name string) { addOnce(ep, name) }
	addAction := func(a model.Action) { addOnceAction(ep, a) }

	if ep.HasInCluster(clusterPowerConfig) {
		add("batteryPercentage")
	}
	if ep.HasInCluster(clusterOnOff) {
		add("status")
		addAction(onOffAction("state", 0x00, 0x01))
	}
	if ep.HasInCluster(clusterLevelControl) {
		addAction(levelAction())
	}
	if ep.HasInCluster(clusterColorControl) {
		add("colorXY")
		addAction(colorXYAction())
		addAction(colorTemperatureAction())
	}
	if ep.HasInCluster(clusterTemperature) {
		add("temperature")
	}
	if ep.HasInCluster(clusterIlluminance) {
		add("illuminance")
	}
	if ep.HasInCluster(clusterHumidity) {
		add("humidity")
	}
	if ep.HasInCluster(clusterOccupancy) {
		add("occupancy")
	}
	if ep.HasInCluster(model.ClusterIASZone) {
		add("zoneStatus")
	}
}

// attachReportings registers the periodic attribute-report
// configuration each standard cluster implies, so onInterviewFinished
// has something to push once the endpoint's properties are attached.
// Intervals and reportable-change thresholds mirror the source's
// per-cluster defaults; addOnceReporting keeps re-running Setup from
// duplicating entries the same way addOnce does for properties.
func attachReportings(ep *model.Endpoint) {
	add := func(r model.Reporting) { addOnceReporting(ep, r) }

	if ep.HasInCluster(clusterPowerConfig) {
		add(model.Reporting{Name: "batteryPercentage", ClusterID: clusterPowerConfig, DataType: zclcodec.DataTypeUint8, AttributeID: 0x0021, MinInterval: 3600, MaxInterval: 62000})
	}
	if ep.HasInCluster(clusterOnOff) {
		add(model.Reporting{Name: "status", ClusterID: clusterOnOff, DataType: zclcodec.DataTypeBoolean, AttributeID: 0x0000, MaxInterval: 3600})
	}
	if ep.HasInCluster(clusterTemperature) {
		add(model.Reporting{Name: "temperature", ClusterID: clusterTemperature, DataType: zclcodec.DataTypeInt16, AttributeID: 0x0000, MinInterval: 10, MaxInterval: 3600, ValueChange: 50})
	}
	if ep.HasInCluster(clusterIlluminance) {
		add(model.Reporting{Name: "illuminance", ClusterID: clusterIlluminance, DataType: zclcodec.DataTypeUint16, AttributeID: 0x0000, MinInterval: 10, MaxInterval: 3600})
	}
	if ep.HasInCluster(clusterHumidity) {
		add(model.Reporting{Name: "humidity", ClusterID: clusterHumidity, DataType: zclcodec.DataTypeUint16, AttributeID: 0x0000, MinInterval: 10, MaxInterval: 3600, ValueChange: 50})
	}
	if ep.HasInCluster(clusterOccupancy) {
		add(model.Reporting{Name: "occupancy", ClusterID: clusterOccupancy, DataType: zclcodec.DataTypeBitmap8, AttributeID: 0x0000, MaxInterval: 3600})
	}
	if ep.HasInCluster(model.ClusterElectricalM) {
		add(model.Reporting{Name: "power", ClusterID: model.ClusterElectricalM, DataType: zclcodec.DataTypeInt16, AttributeID: 0x050B, MinInterval: 5, MaxInterval: 3600, ValueChange: 5})
	}
	if ep.HasInCluster(model.ClusterMetering) {
		add(model.Reporting{Name: "energy", ClusterID: model.ClusterMetering, DataType: zclcodec.DataTypeUint32, AttributeID: 0x0000, MinInterval: 5, MaxInterval: 3600, ValueChange: 1})
	}
}

// nextTID hands out outgoing transaction ids for action frames. These
// never need to correlate with an incoming reply (only gateway's own
// ReadAttributes round trip does that, through its own counter), so a
// process-wide sequence is enough to keep sniffer traces readable.
var actionTID uint32

func nextTID() byte {
	return byte(atomic.AddUint32(&actionTID, 1))
}

// onOffAction builds the "state" action: arg is the string "on",
// "off" or "toggle", mapped to the OnOff cluster's onId/offId/toggleId
// server commands, which all carry an empty payload.
func onOffAction(name string, offCmd, onCmd byte) model.Action {
	return model.Action{
		Name:      name,
		ClusterID: clusterOnOff,
		Request: func(arg interface{}) ([]byte, error) {
			cmd := offCmd
			switch v, _ := arg.(string); v {
			case "on":
				cmd = onCmd
			case "toggle":
				cmd = 0x02
			case "off", "":
				cmd = offCmd
			}
			return zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, nextTID(), cmd, 0), nil
		},
	}
}

// levelAction builds the "brightness" action: arg is a 0..254 level,
// sent as MoveToLevel (cmd 0x04) with a zero transition time.
func levelAction() model.Action {
	const cmdMoveToLevel = 0x04
	return model.Action{
		Name:      "brightness",
		ClusterID: clusterLevelControl,
		Request: func(arg interface{}) ([]byte, error) {
			level := intArg(arg)
			frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, nextTID(), cmdMoveToLevel, 0)
			frame = append(frame, byte(level))
			frame = append(frame, zclcodec.PutLittleEndianUint16(0)...)
			return frame, nil
		},
	}
}

// colorXYAction builds the "colorXY" action: arg is a [2]float64 of
// CIE 1931 x,y in 0..1, sent as MoveToColor (cmd 0x07) in the 0..65535
// fixed-point form the cluster uses on the wire.
func colorXYAction() model.Action {
	const cmdMoveToColor = 0x07
	return model.Action{
		Name:      "colorXY",
		ClusterID: clusterColorControl,
		Request: func(arg interface{}) ([]byte, error) {
			xy, _ := arg.([2]float64)
			frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, nextTID(), cmdMoveToColor, 0)
			frame = append(frame, zclcodec.PutLittleEndianUint16(uint16(xy[0]*65535))...)
			frame = append(frame, zclcodec.PutLittleEndianUint16(uint16(xy[1]*65535))...)
			frame = append(frame, zclcodec.PutLittleEndianUint16(0)...)
			return frame, nil
		},
	}
}

// colorTemperatureAction builds the "colorTemperature" action: arg is
// a mired value, sent as MoveToColorTemperature (cmd 0x0A).
func colorTemperatureAction() model.Action {
	const cmdMoveToColorTemperature = 0x0A
	return model.Action{
		Name:      "colorTemperature",
		ClusterID: clusterColorControl,
		Request: func(arg interface{}) ([]byte, error) {
			mireds := intArg(arg)
			frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, nextTID(), cmdMoveToColorTemperature, 0)
			frame = append(frame, zclcodec.PutLittleEndianUint16(uint16(mireds))...)
			frame = append(frame, zclcodec.PutLittleEndianUint16(0)...)
			return frame, nil
		},
	}
}

func intArg(arg interface{}) int {
	switch v := arg.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case uint8:
		return int(v)
	default:
		return 0
	}
}
