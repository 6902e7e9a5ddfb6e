package property

import "zigcored/internal/zigbee/model"

// TUYA data types carried in the cluster 0xEF00 header, distinct from
// the ZCL data type table: the length field and these type tags are a
// TUYA-specific convention layered on top of the ZCL cluster-specific
// command envelope.
const (
	tuyaTypeBool   byte = 0x01
	tuyaTypeU32    byte = 0x02
	tuyaTypeU8     byte = 0x04
)

// tuyaRecord is the decoded cluster 0xEF00 command body: status, tid,
// dataPoint, dataType, length:u16 BE, value. Length is big-endian,
// unlike the rest of the ZCL wire format.
type tuyaRecord struct {
	Status    byte
	TID       byte
	DataPoint byte
	DataType  byte
	Value     []byte
}

func parseTUYARecord(payload []byte) (tuyaRecord, bool) {
	if len(payload) < 6 {
		return tuyaRecord{}, false
	}
	length := uint16(payload[4])<<8 | uint16(payload[5])
	if len(payload) < 6+int(length) {
		return tuyaRecord{}, false
	}
	return tuyaRecord{
		Status:    payload[0],
		TID:       payload[1],
		DataPoint: payload[2],
		DataType:  payload[3],
		Value:     payload[6 : 6+int(length)],
	}, true
}

func tuyaValue(rec tuyaRecord) (interface{}, bool) {
	switch rec.DataType {
	case tuyaTypeBool:
		if len(rec.Value) != 1 {
			return nil, false
		}
		return rec.Value[0] != 0, true
	case tuyaTypeU32:
		if len(rec.Value) != 4 {
			return nil, false
		}
		v := uint32(rec.Value[0])<<24 | uint32(rec.Value[1])<<16 | uint32(rec.Value[2])<<8 | uint32(rec.Value[3])
		return v, true
	case tuyaTypeU8:
		if len(rec.Value) != 1 {
			return nil, false
		}
		return rec.Value[0], true
	default:
		return nil, false
	}
}

// TUYAPresenceSensor reads datapoint 0x01 (presence) and 0x07
// (duration, u32 BE) from the TUYA 0xEF00 command envelope.
type TUYAPresenceSensor struct {
	base
	values map[string]interface{}
}

func NewTUYAPresenceSensor(options map[string]interface{}) model.Property {
	return &TUYAPresenceSensor{base: base{name: "presence", clusterID: model.ClusterTuya, options: options}, values: make(map[string]interface{})}
}

func (p *TUYAPresenceSensor) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *TUYAPresenceSensor) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x01 && cmdID != 0x02 {
		return false
	}
	rec, ok := parseTUYARecord(payload)
	if !ok {
		return false
	}
	v, ok := tuyaValue(rec)
	if !ok {
		return false
	}
	switch rec.DataPoint {
	case 0x01:
		p.values["presence"] = v
	case 0x07:
		p.values["duration"] = v
	default:
		return false
	}
	p.value = p.values
	return true
}

// TUYAPowerOnStatus decodes the enum carried by datapoint 0x18:
// 0 "off", 1 "on", 2 "previous". Unlike the generic PowerOnStatus
// enum, 2 does not mean "toggle".
type TUYAPowerOnStatus struct {
	base
}

func NewTUYAPowerOnStatus(options map[string]interface{}) model.Property {
	return &TUYAPowerOnStatus{base: base{name: "powerOnStatus", clusterID: model.ClusterTuya, options: options}}
}

func (p *TUYAPowerOnStatus) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *TUYAPowerOnStatus) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x01 && cmdID != 0x02 {
		return false
	}
	rec, ok := parseTUYARecord(payload)
	if !ok || rec.DataPoint != 0x18 {
		return false
	}
	v, ok := tuyaValue(rec)
	if !ok {
		return false
	}
	enumVal, ok := v.(byte)
	if !ok {
		return false
	}
	switch enumVal {
	case 0:
		p.value = "off"
	case 1:
		p.value = "on"
	case 2:
		p.value = "previous"
	default:
		return false
	}
	return true
}

// TUYASwitchType maps a datapoint-carried enum to the name of the
// switch behaviour it selects (toggle/state/momentary).
type TUYASwitchType struct {
	base
}

func NewTUYASwitchType(options map[string]interface{}) model.Property {
	return &TUYASwitchType{base: base{name: "switchType", clusterID: model.ClusterTuya, options: options}}
}

func (p *TUYASwitchType) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *TUYASwitchType) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x01 && cmdID != 0x02 {
		return false
	}
	rec, ok := parseTUYARecord(payload)
	if !ok || rec.DataPoint != 0x28 {
		return false
	}
	v, ok := tuyaValue(rec)
	if !ok {
		return false
	}
	names := map[byte]string{0: "toggle", 1: "state", 2: "momentary"}
	enumVal, ok := v.(byte)
	if !ok {
		return false
	}
	name, ok := names[enumVal]
	if !ok {
		return false
	}
	p.value = name
	return true
}

// TUYANeoSiren maps a small datapoint table onto siren
// state/volume/duration fields.
type TUYANeoSiren struct {
	base
	values map[string]interface{}
}

func NewTUYANeoSiren(options map[string]interface{}) model.Property {
	return &TUYANeoSiren{base: base{name: "siren", clusterID: model.ClusterTuya, options: options}, values: make(map[string]interface{})}
}

func (p *TUYANeoSiren) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *TUYANeoSiren) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x01 && cmdID != 0x02 {
		return false
	}
	rec, ok := parseTUYARecord(payload)
	if !ok {
		return false
	}
	v, ok := tuyaValue(rec)
	if !ok {
		return false
	}
	switch rec.DataPoint {
	case 0x68:
		p.values["alarm"] = v
	case 0x05:
		p.values["volume"] = v
	case 0x07:
		p.values["duration"] = v
	default:
		return false
	}
	p.value = p.values
	return true
}
