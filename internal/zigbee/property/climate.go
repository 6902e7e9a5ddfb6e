package property

import (
	"math"

	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// Illuminance is attr 0x0000, 16-bit unsigned raw on the Illuminance
// Measurement cluster. lux = 10^((raw-1)/10000) when raw>0 else 0.
type Illuminance struct {
	base
}

func NewIlluminance(options map[string]interface{}) model.Property {
	return &Illuminance{base: base{name: "illuminance", clusterID: 0x0400, options: options}}
}

func (p *Illuminance) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || dataType != zclcodec.DataTypeUint16 || len(payload) != 2 {
		return false
	}
	raw := zclcodec.LittleEndianUint16(payload)
	if raw == 0 {
		p.value = float64(0)
		return true
	}
	p.value = math.Pow(10, (float64(raw)-1)/10000)
	return true
}

func (p *Illuminance) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// Temperature is attr 0x0000, 16-bit signed, divided by 100.
type Temperature struct {
	base
}

func NewTemperature(options map[string]interface{}) model.Property {
	return &Temperature{base: base{name: "temperature", clusterID: 0x0402, options: options}}
}

func (p *Temperature) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || dataType != zclcodec.DataTypeInt16 || len(payload) != 2 {
		return false
	}
	raw := int16(zclcodec.LittleEndianUint16(payload))
	p.value = float64(raw) / 100
	return true
}

func (p *Temperature) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// Humidity is attr 0x0000, 16-bit unsigned, divided by 100.
type Humidity struct {
	base
}

func NewHumidity(options map[string]interface{}) model.Property {
	return &Humidity{base: base{name: "humidity", clusterID: 0x0405, options: options}}
}

func (p *Humidity) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || dataType != zclcodec.DataTypeUint16 || len(payload) != 2 {
		return false
	}
	raw := zclcodec.LittleEndianUint16(payload)
	p.value = float64(raw) / 100
	return true
}

func (p *Humidity) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// Occupancy is attr 0x0000, 8-bit bitmap, bit 0 -> occupied bool.
type Occupancy struct {
	base
}

func NewOccupancy(options map[string]interface{}) model.Property {
	return &Occupancy{base: base{name: "occupancy", clusterID: 0x0406, options: options}}
}

func (p *Occupancy) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || dataType != zclcodec.DataTypeBitmap8 || len(payload) != 1 {
		return false
	}
	p.value = payload[0]&0x01 != 0
	return true
}

func (p *Occupancy) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }
