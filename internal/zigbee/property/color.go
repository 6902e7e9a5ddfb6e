package property

import (
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// ColorHS tracks attrs 0x0000 (hue) and 0x0001 (saturation) on the
// Color Control cluster, 8-bit unsigned each, emitting the pair only
// once both components have been seen at least once.
type ColorHS struct {
	base
	hue, sat     uint8
	hueSeen      bool
	satSeen      bool
}

func NewColorHS(options map[string]interface{}) model.Property {
	return &ColorHS{base: base{name: "colorHS", clusterID: 0x0300, options: options}}
}

func (p *ColorHS) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if dataType != zclcodec.DataTypeUint8 || len(payload) != 1 {
		return false
	}
	switch attrID {
	case 0x0000:
		p.hue = payload[0]
		p.hueSeen = true
	case 0x0001:
		p.sat = payload[0]
		p.satSeen = true
	default:
		return false
	}
	if p.hueSeen && p.satSeen {
		p.value = [2]uint8{p.hue, p.sat}
	}
	return true
}

func (p *ColorHS) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// ColorXY tracks attrs 0x0003 (x) and 0x0004 (y), 16-bit unsigned
// each, divided by 0xFFFF to yield a 0..1 float64 pair.
type ColorXY struct {
	base
	x, y       float64
	xSeen      bool
	ySeen      bool
}

func NewColorXY(options map[string]interface{}) model.Property {
	return &ColorXY{base: base{name: "colorXY", clusterID: 0x0300, options: options}}
}

func (p *ColorXY) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if dataType != zclcodec.DataTypeUint16 || len(payload) != 2 {
		return false
	}
	raw := float64(zclcodec.LittleEndianUint16(payload)) / 0xFFFF
	switch attrID {
	case 0x0003:
		p.x = raw
		p.xSeen = true
	case 0x0004:
		p.y = raw
		p.ySeen = true
	default:
		return false
	}
	if p.xSeen && p.ySeen {
		p.value = [2]float64{p.x, p.y}
	}
	return true
}

func (p *ColorXY) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// ColorTemperature is attr 0x0007, 16-bit unsigned mired value. Value
// exposes both the raw mired and a derived kelvin reading.
type ColorTemperature struct {
	base
}

func NewColorTemperature(options map[string]interface{}) model.Property {
	return &ColorTemperature{base: base{name: "colorTemperature", clusterID: 0x0300, options: options}}
}

func (p *ColorTemperature) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0007 || dataType != zclcodec.DataTypeUint16 || len(payload) != 2 {
		return false
	}
	mired := zclcodec.LittleEndianUint16(payload)
	kelvin := 0.0
	if mired > 0 {
		kelvin = 1e6 / float64(mired)
	}
	p.value = map[string]interface{}{"mired": mired, "kelvin": kelvin}
	return true
}

func (p *ColorTemperature) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }
