package property

import "zigcored/internal/zigbee/model"

// IASZoneStatus is the IAS Zone cluster's ZoneStatusChangeNotification
// command (0x00): a 16-bit bitfield. Bit 0 maps to the property's
// named boolean (alarm1, the sensor's primary state), bit 2 to tamper,
// bit 3 to batteryLow. Emitted as a composite map.
type IASZoneStatus struct {
	base
}

func NewIASZoneStatus(options map[string]interface{}) model.Property {
	name := "alarm1"
	if options != nil {
		if v, ok := options["name"].(string); ok && v != "" {
			name = v
		}
	}
	return &IASZoneStatus{base: base{name: "zoneStatus", clusterID: model.ClusterIASZone, options: map[string]interface{}{"name": name}}}
}

func (p *IASZoneStatus) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *IASZoneStatus) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x00 || len(payload) < 2 {
		return false
	}
	bits := uint16(payload[0]) | uint16(payload[1])<<8

	name := p.optString("name", "alarm1")
	out := map[string]interface{}{
		name: bits&0x0001 != 0,
	}
	if bits&0x0004 != 0 {
		out["tamper"] = true
	}
	if bits&0x0008 != 0 {
		out["batteryLow"] = true
	}
	p.value = out
	return true
}

// Scene is the Scenes cluster's Recall command (0x05). If the options
// map holds a friendly label for the scene id under "scenes", that
// label is emitted; otherwise the numeric id is emitted verbatim.
type Scene struct {
	base
}

func NewScene(options map[string]interface{}) model.Property {
	return &Scene{base: base{name: "scene", clusterID: 0x0005, options: options}}
}

func (p *Scene) ParseAttribute(device *model.Device, attrID uint16, dataType byte, payload []byte) bool {
	return false
}

func (p *Scene) ParseCommand(device *model.Device, cmdID byte, payload []byte) bool {
	if cmdID != 0x05 || len(payload) < 1 {
		return false
	}
	sceneID := payload[0]
	if p.options != nil {
		if labels, ok := p.options["scenes"].(map[byte]string); ok {
			if label, ok := labels[sceneID]; ok {
				p.value = label
				return true
			}
		}
	}
	p.value = sceneID
	return true
}
