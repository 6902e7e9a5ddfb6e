package property

import (
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// BatteryVoltage is attr 0x0020, 8-bit unsigned, single byte, reported
// in units of 100mV. Mapped through the linear range 2850..3200mV to a
// 0..100 percent value.
type BatteryVoltage struct {
	base
	voltageMV int
}

func NewBatteryVoltage(options map[string]interface{}) model.Property {
	return &BatteryVoltage{base: base{name: "batteryVoltage", clusterID: 0x0001, options: options}}
}

func (p *BatteryVoltage) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0020 || dataType != zclcodec.DataTypeUint8 || len(payload) != 1 {
		return false
	}
	p.voltageMV = int(payload[0]) * 100
	p.value = percentage(2850, 3200, float64(p.voltageMV))
	return true
}

func (p *BatteryVoltage) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }

// BatteryPercentage is attr 0x0021, 8-bit unsigned. ZigBee stores
// percent-times-2 unless the batteryUndivided option says otherwise.
type BatteryPercentage struct {
	base
}

func NewBatteryPercentage(options map[string]interface{}) model.Property {
	return &BatteryPercentage{base: base{name: "batteryPercentage", clusterID: 0x0001, options: options}}
}

func (p *BatteryPercentage) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	if attrID != 0x0021 || dataType != zclcodec.DataTypeUint8 || len(payload) != 1 {
		return false
	}
	raw := int(payload[0])
	if p.optBool("batteryUndivided") {
		p.value = raw
	} else {
		p.value = raw / 2
	}
	return true
}

func (p *BatteryPercentage) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool { return false }
