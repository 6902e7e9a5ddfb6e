package property

import (
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// gatedMeasurement models the Energy/Power contract: the active
// attribute value is only stored once both multiplier and divider have
// arrived and are non-zero. valueAttr/multiplierAttr/dividerAttr are
// the cluster's attribute ids for the reading itself and its scaling
// pair.
type gatedMeasurement struct {
	base
	valueAttr, multiplierAttr, dividerAttr uint16
	raw                                    int64
	rawSeen                                bool
	multiplier, divider                    uint32
}

func (p *gatedMeasurement) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	switch attrID {
	case p.valueAttr:
		v, ok := signedOrUnsigned(dataType, payload)
		if !ok {
			return false
		}
		p.raw = v
		p.rawSeen = true
	case p.multiplierAttr:
		v, ok := unsignedValue(dataType, payload)
		if !ok {
			return false
		}
		p.multiplier = uint32(v)
	case p.dividerAttr:
		v, ok := unsignedValue(dataType, payload)
		if !ok {
			return false
		}
		p.divider = uint32(v)
	default:
		return false
	}

	p.recompute()
	return true
}

func (p *gatedMeasurement) recompute() {
	if !p.rawSeen {
		return
	}
	if p.multiplier == 0 || p.divider == 0 {
		return
	}
	if p.multiplier > 1 || p.divider > 1 {
		p.value = float64(p.raw) * float64(p.multiplier) / float64(p.divider)
		return
	}
	p.value = p.raw
}

func (p *gatedMeasurement) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// Power is the Electrical Measurement cluster's active power
// attribute, gated by its multiplier (0x0301) and divisor (0x0302).
func NewPower(options map[string]interface{}) model.Property {
	return &gatedMeasurement{
		base:           base{name: "power", clusterID: model.ClusterElectricalM, options: options},
		valueAttr:      0x050B,
		multiplierAttr: 0x0301,
		dividerAttr:    0x0302,
	}
}

// Energy is the Metering cluster's current summation delivered
// attribute, gated by its multiplier (0x0604) and divisor (0x0605).
func NewEnergy(options map[string]interface{}) model.Property {
	return &gatedMeasurement{
		base:           base{name: "energy", clusterID: model.ClusterMetering, options: options},
		valueAttr:      0x0000,
		multiplierAttr: 0x0604,
		dividerAttr:    0x0605,
	}
}

func unsignedValue(dataType byte, payload []byte) (uint64, bool) {
	switch dataType {
	case zclcodec.DataTypeUint8:
		if len(payload) != 1 {
			return 0, false
		}
		return uint64(payload[0]), true
	case zclcodec.DataTypeUint16:
		if len(payload) != 2 {
			return 0, false
		}
		return uint64(zclcodec.LittleEndianUint16(payload)), true
	case zclcodec.DataTypeUint32:
		if len(payload) != 4 {
			return 0, false
		}
		return uint64(zclcodec.LittleEndianUint32(payload)), true
	default:
		return 0, false
	}
}

func signedOrUnsigned(dataType byte, payload []byte) (int64, bool) {
	switch dataType {
	case zclcodec.DataTypeInt16:
		if len(payload) != 2 {
			return 0, false
		}
		return int64(int16(zclcodec.LittleEndianUint16(payload))), true
	case zclcodec.DataTypeInt32:
		if len(payload) != 4 {
			return 0, false
		}
		return int64(int32(zclcodec.LittleEndianUint32(payload))), true
	default:
		u, ok := unsignedValue(dataType, payload)
		return int64(u), ok
	}
}
