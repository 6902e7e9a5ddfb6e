package property

import (
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// Status is attr 0x0000 on the OnOff cluster, boolean or 8-bit
// unsigned, exposed as the string "on"/"off".
type Status struct {
	base
}

func NewStatus(options map[string]interface{}) model.Property {
	return &Status{base: base{name: "status", clusterID: 0x0006, options: options}}
}

func (p *Status) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || len(payload) != 1 {
		return false
	}
	if dataType != zclcodec.DataTypeBoolean && dataType != zclcodec.DataTypeUint8 {
		return false
	}
	if payload[0] != 0 {
		p.value = "on"
	} else {
		p.value = "off"
	}
	return true
}

func (p *Status) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// PowerOnStatus is attr 0x4003, 8-bit enum: 0 off, 1 on, 2 toggle, 0xFF
// previous.
type PowerOnStatus struct {
	base
}

func NewPowerOnStatus(options map[string]interface{}) model.Property {
	return &PowerOnStatus{base: base{name: "powerOnStatus", clusterID: 0x0006, options: options}}
}

func (p *PowerOnStatus) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x4003 || dataType != zclcodec.DataTypeEnum8 || len(payload) != 1 {
		return false
	}
	switch payload[0] {
	case 0:
		p.value = "off"
	case 1:
		p.value = "on"
	case 2:
		p.value = "toggle"
	case 0xFF:
		p.value = "previous"
	default:
		return false
	}
	return true
}

func (p *PowerOnStatus) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// Contact is attr 0x0000 on the IAS Zone cluster's simplified boolean
// form used by some contact sensors outside the full ZoneStatus
// bitfield, exposed as a boolean "contact" value (true = closed).
type Contact struct {
	base
}

func NewContact(options map[string]interface{}) model.Property {
	return &Contact{base: base{name: "contact", clusterID: model.ClusterIASZone, options: options}}
}

func (p *Contact) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0000 || dataType != zclcodec.DataTypeBitmap8 || len(payload) != 1 {
		return false
	}
	p.value = payload[0]&0x01 == 0
	return true
}

func (p *Contact) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }
