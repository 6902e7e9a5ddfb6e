package property

import (
	"math"

	"zigcored/internal/zigbee/model"
)

// PTVO firmware exposes "virtual" generic-cluster attributes per
// channel; these variants read the Analog/Digital Input cluster's
// present-value attribute (0x0055). A channel's role is fixed by which
// variant profile.setupPTVO attaches; options are not consulted.

// PTVOCO2 reads present-value as a ppm float.
type PTVOCO2 struct {
	base
}

func NewPTVOCO2(options map[string]interface{}) model.Property {
	return &PTVOCO2{base: base{name: "co2", clusterID: 0x000C, options: options}}
}

func (p *PTVOCO2) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0055 || dataType != 0x39 || len(payload) != 4 {
		return false
	}
	p.value = singlePrecisionFloat(payload)
	return true
}

func (p *PTVOCO2) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// PTVOTemperature reads present-value as a celsius float.
type PTVOTemperature struct {
	base
}

func NewPTVOTemperature(options map[string]interface{}) model.Property {
	return &PTVOTemperature{base: base{name: "temperature", clusterID: 0x000C, options: options}}
}

func (p *PTVOTemperature) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0055 || dataType != 0x39 || len(payload) != 4 {
		return false
	}
	p.value = singlePrecisionFloat(payload)
	return true
}

func (p *PTVOTemperature) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// PTVOSwitchAction reads the Digital Input cluster's present-value
// boolean and exposes it as "on"/"off", matching a momentary-switch
// channel role.
type PTVOSwitchAction struct {
	base
}

func NewPTVOSwitchAction(options map[string]interface{}) model.Property {
	return &PTVOSwitchAction{base: base{name: "action", clusterID: 0x000F, options: options}}
}

func (p *PTVOSwitchAction) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0055 || len(payload) != 1 {
		return false
	}
	if payload[0] != 0 {
		p.value = "on"
	} else {
		p.value = "off"
	}
	return true
}

func (p *PTVOSwitchAction) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// PTVOPattern exposes a channel's present-value character string
// (type 0x42) verbatim,
// used for text/pattern display channels.
type PTVOPattern struct {
	base
}

func NewPTVOPattern(options map[string]interface{}) model.Property {
	return &PTVOPattern{base: base{name: "pattern", clusterID: 0x000C, options: options}}
}

func (p *PTVOPattern) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0055 || dataType != 0x42 {
		return false
	}
	p.value = string(payload)
	return true
}

func (p *PTVOPattern) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

func singlePrecisionFloat(payload []byte) float64 {
	bits := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	return float64(math.Float32frombits(bits))
}

// Konke button action is a cluster-specific command on the OnOff
// cluster mapped to "single"/"double"/"hold".
type KonkeButtonAction struct {
	base
}

func NewKonkeButtonAction(options map[string]interface{}) model.Property {
	return &KonkeButtonAction{base: base{name: "action", clusterID: 0x0006, options: options}}
}

func (p *KonkeButtonAction) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *KonkeButtonAction) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	switch cmdID {
	case 0x00:
		p.value = "single"
	case 0x01:
		p.value = "double"
	case 0x02:
		p.value = "hold"
	default:
		return false
	}
	return true
}

// LifeControlAirQuality is a multi-attribute CO2/VOC/temperature/
// humidity composite keyed off a manufacturer-specific cluster.
type LifeControlAirQuality struct {
	base
	values map[string]interface{}
}

func NewLifeControlAirQuality(options map[string]interface{}) model.Property {
	return &LifeControlAirQuality{base: base{name: "airQuality", clusterID: 0xFC81, options: options}, values: make(map[string]interface{})}
}

func (p *LifeControlAirQuality) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	names := map[uint16]string{0x0000: "co2", 0x0001: "voc", 0x0002: "temperature", 0x0003: "humidity"}
	name, ok := names[attrID]
	if !ok || dataType != 0x39 || len(payload) != 4 {
		return false
	}
	p.values[name] = singlePrecisionFloat(payload)
	p.value = p.values
	return true
}

func (p *LifeControlAirQuality) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	return false
}

// PerenioSmartPlug covers manufacturer-specific energy/voltage/
// current/power attributes plus an overload/leakage alarm bitmap.
type PerenioSmartPlug struct {
	base
	values map[string]interface{}
}

func NewPerenioSmartPlug(options map[string]interface{}) model.Property {
	return &PerenioSmartPlug{base: base{name: "smartPlug", clusterID: 0xFFF2, options: options}, values: make(map[string]interface{})}
}

func (p *PerenioSmartPlug) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	switch attrID {
	case 0x0000:
		if dataType != 0x23 || len(payload) != 4 {
			return false
		}
		p.values["energy"] = leUint32(payload)
	case 0x0001:
		if dataType != 0x21 || len(payload) != 2 {
			return false
		}
		p.values["voltage"] = leUint16(payload)
	case 0x0002:
		if dataType != 0x21 || len(payload) != 2 {
			return false
		}
		p.values["current"] = leUint16(payload)
	case 0x0003:
		if dataType != 0x23 || len(payload) != 4 {
			return false
		}
		p.values["power"] = leUint32(payload)
	case 0x0010:
		if dataType != 0x18 || len(payload) != 1 {
			return false
		}
		p.values["overload"] = payload[0]&0x01 != 0
		p.values["leakage"] = payload[0]&0x02 != 0
	default:
		return false
	}
	p.value = p.values
	return true
}

func (p *PerenioSmartPlug) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

func leUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
