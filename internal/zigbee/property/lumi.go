package property

import (
	"math"

	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// LUMI manufacturer-specific cluster, carried as attribute 0xFF01/0xF7
// octet strings on the Basic cluster by most Aqara/Xiaomi devices.
const lumiManufacturerCode = 0x115F

// lumiDatapoint decodes one (datapointId, itemType, value) record from
// a LUMI 0xF7 envelope.
type lumiDatapoint struct {
	ID    byte
	Type  byte
	Value []byte
}

func parseLUMIEnvelope(payload []byte) []lumiDatapoint {
	var out []lumiDatapoint
	offset := 0
	for offset+2 <= len(payload) {
		id := payload[offset]
		itemType := payload[offset+1]
		offset += 2

		size, ok := zclcodec.ZCLDataSize(itemType, payload, &offset)
		if !ok || offset+size > len(payload) {
			return out
		}
		out = append(out, lumiDatapoint{ID: id, Type: itemType, Value: payload[offset : offset+size]})
		offset += size
	}
	return out
}

// LUMIData is attr 0x00F7 on the Basic cluster: an octet string
// encoding a sequence of datapoint records. Each record is dispatched
// to a per-datapoint table; unrecognised datapoints are ignored. The
// table is not keyed by model; the firmware version gating of
// datapoint 0x0066 is decided inside that datapoint's entry.
type LUMIData struct {
	base
	values map[byte]interface{}
}

func NewLUMIData(options map[string]interface{}) model.Property {
	return &LUMIData{base: base{name: "lumiData", clusterID: model.ClusterBasic, options: options}, values: make(map[byte]interface{})}
}

// lumiDatapointTable maps known datapoint ids to a decode function.
// The only firmware-dependent entry is datapoint 0x0066, whose
// function checks device.FirmwareVersion inline (>= 50: u32
// illuminance, otherwise an occupancy boolean). No entry checks
// device.ModelName.
var lumiDatapointTable = map[byte]func(dp lumiDatapoint, device *model.Device) (string, interface{}, bool){
	0x01: func(dp lumiDatapoint, device *model.Device) (string, interface{}, bool) {
		if len(dp.Value) != 1 {
			return "", nil, false
		}
		return "batteryVoltage", percentage(2850, 3200, float64(int(dp.Value[0])*100)), true
	},
	0x03: func(dp lumiDatapoint, device *model.Device) (string, interface{}, bool) {
		if len(dp.Value) != 1 {
			return "", nil, false
		}
		return "deviceTemperature", int8(dp.Value[0]), true
	},
	0x64: func(dp lumiDatapoint, device *model.Device) (string, interface{}, bool) {
		if len(dp.Value) != 1 {
			return "", nil, false
		}
		return "status", dp.Value[0] != 0, true
	},
	0x66: func(dp lumiDatapoint, device *model.Device) (string, interface{}, bool) {
		if device != nil && device.FirmwareVersion >= 50 {
			if len(dp.Value) != 4 {
				return "", nil, false
			}
			return "illuminance", zclcodec.LittleEndianUint32(dp.Value), true
		}
		if len(dp.Value) != 1 {
			return "", nil, false
		}
		return "occupancy", dp.Value[0] != 0, true
	},
}

func (p *LUMIData) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x00F7 || dataType != zclcodec.DataTypeOctetStr {
		return false
	}
	claimed := false
	for _, dp := range parseLUMIEnvelope(payload) {
		decode, ok := lumiDatapointTable[dp.ID]
		if !ok {
			continue
		}
		name, value, ok := decode(dp, device)
		if !ok {
			continue
		}
		p.values[dp.ID] = value
		p.value = map[string]interface{}{name: value}
		claimed = true
	}
	return claimed
}

func (p *LUMIData) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// LUMIButtonAction is a cluster-specific command on the LUMI
// manufacturer-specific switch cluster, mapping a raw gesture code to
// "single"/"double"/"hold".
type LUMIButtonAction struct {
	base
}

func NewLUMIButtonAction(options map[string]interface{}) model.Property {
	return &LUMIButtonAction{base: base{name: "action", clusterID: 0xFCC0, options: options}}
}

func (p *LUMIButtonAction) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *LUMIButtonAction) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if len(payload) < 1 {
		return false
	}
	switch payload[0] {
	case 0:
		p.value = "single"
	case 1:
		p.value = "double"
	case 2:
		p.value = "hold"
	default:
		return false
	}
	return true
}

// LUMICubeRotation is a signed 32-bit datapoint value divided by 100
// to yield a rotation-angle-degrees float.
type LUMICubeRotation struct {
	base
}

func NewLUMICubeRotation(options map[string]interface{}) model.Property {
	return &LUMICubeRotation{base: base{name: "cubeRotation", clusterID: model.ClusterBasic, options: options}}
}

func (p *LUMICubeRotation) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0056 || dataType != zclcodec.DataTypeInt32 || len(payload) != 4 {
		return false
	}
	raw := int32(zclcodec.LittleEndianUint32(payload))
	p.value = float64(raw) / 100
	return true
}

func (p *LUMICubeRotation) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// LUMICubeMovement is attr 0x0055, reported with a non-standard data
// type tag (0x39) carrying a 16-bit unsigned gesture code rather than
// the ZCL-standard single-precision float that tag nominally denotes —
// preserved as-is because that is what the sensor actually sends.
type LUMICubeMovement struct {
	base
}

func NewLUMICubeMovement(options map[string]interface{}) model.Property {
	return &LUMICubeMovement{base: base{name: "cubeMovement", clusterID: model.ClusterBasic, options: options}}
}

func (p *LUMICubeMovement) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0055 || dataType != 0x39 || len(payload) != 2 {
		return false
	}
	raw := zclcodec.LittleEndianUint16(payload)
	switch {
	case raw >= 512:
		p.value = "tap"
	case raw >= 256:
		p.value = "slide"
	case raw >= 128:
		p.value = "flip"
	case raw >= 64:
		p.value = "drop"
	case raw == 3:
		p.value = "fall"
	case raw == 2:
		p.value = "wake"
	case raw == 0:
		p.value = "shake"
	default:
		return false
	}
	return true
}

func (p *LUMICubeMovement) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// LUMIPower reads datapoint 0x95 of the LUMI 0xF7 envelope as a
// float32 power value. It applies no multiplier/divisor gating, and
// datapoint 0x96 (consumption) is not decoded.
type LUMIPower struct {
	base
}

func NewLUMIPower(options map[string]interface{}) model.Property {
	return &LUMIPower{base: base{name: "power", clusterID: model.ClusterBasic, options: options}}
}

func (p *LUMIPower) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x00F7 || dataType != zclcodec.DataTypeOctetStr {
		return false
	}
	claimed := false
	for _, dp := range parseLUMIEnvelope(payload) {
		if dp.ID != 0x95 || len(dp.Value) != 4 {
			continue
		}
		bits := zclcodec.LittleEndianUint32(dp.Value)
		p.value = float64(math.Float32frombits(bits))
		claimed = true
	}
	return claimed
}

func (p *LUMIPower) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }
