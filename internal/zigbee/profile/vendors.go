package profile

import (
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/property"
)

// vendorOverrides keyed by Device.ManufacturerName, layered on top of
// attachGeneric's standard-cluster mapping. Each override only adds
// the vendor-specific properties the generic pass cannot infer from a
// cluster id alone (custom datapoint envelopes, manufacturer-specific
// attributes, quirky enums); it never removes what the generic pass
// already attached.
var vendorOverrides = map[string]func(device *model.Device){
	"LUMI":        setupLUMI,
	"_TZE200":     setupTUYA,
	"_TZ3000":     setupTUYA,
	"PTVO":        setupPTVO,
	"Konke":       setupKonke,
	"LifeControl": setupLifeControl,
	"Perenio":     setupPerenio,
}

// addOnceAction appends a unless the endpoint already carries an
// action with that name.
func addOnceAction(ep *model.Endpoint, a model.Action) {
	if ep.ActionByName(a.Name) != nil {
		return
	}
	ep.Actions = append(ep.Actions, a)
}

// addOnceReporting appends r unless the endpoint already carries a
// reporting with that name, for the same idempotent-Setup reason
// addOnce dedups properties.
func addOnceReporting(ep *model.Endpoint, r model.Reporting) {
	for _, existing := range ep.Reportings {
		if existing.Name == r.Name {
			return
		}
	}
	ep.Reportings = append(ep.Reportings, r)
}

// addOnce appends the named property unless the endpoint already
// carries one with that name - re-running Setup on an already-
// configured device, or a vendor override whose device advertises the
// same cluster on two endpoints, must not duplicate entries. Dedup is
// by property name rather than cluster id because several vendor
// dialects (TUYA, LUMI) attach more than one property to the same
// cluster id.
func addOnce(ep *model.Endpoint, name string) {
	for _, p := range ep.Properties {
		if p.Name() == name {
			return
		}
	}
	if p := property.New(name, nil); p != nil {
		ep.Properties = append(ep.Properties, p)
	}
}

// setupLUMI attaches the LUMI/Aqara datapoint decoder (attribute
// 0x00F7) on endpoints with the Basic cluster, the button action on
// endpoints with the OnOff cluster, the cube rotation/movement parsers
// on endpoints with the Analog Input (0x000C) cluster, and the LUMI
// power reader on endpoints with the Power Configuration cluster. IAS
// Zone endpoints get nothing LUMI-specific.
func setupLUMI(device *model.Device) {
	for _, ep := range device.Endpoints {
		if ep.HasInCluster(model.ClusterBasic) {
			addOnce(ep, "lumi.data")
		}
		if ep.HasInCluster(clusterOnOff) {
			addOnce(ep, "lumi.buttonAction")
		}
		if ep.HasInCluster(0x000C) {
			addOnce(ep, "lumi.cubeRotation")
			addOnce(ep, "lumi.cubeMovement")
		}
		if ep.HasInCluster(clusterPowerConfig) {
			addOnce(ep, "lumi.power")
		}
	}
}

// setupTUYA attaches the big-endian datapoint decoder on cluster
// 0xEF00 to every endpoint that advertises it, picking the model-
// specific TUYA property by the interviewed model name.
func setupTUYA(device *model.Device) {
	for _, ep := range device.Endpoints {
		if !ep.HasInCluster(model.ClusterTuya) {
			continue
		}
		switch device.ModelName {
		case "TS0601_presence":
			addOnce(ep, "tuya.presenceSensor")
		case "TS0601_switch":
			addOnce(ep, "tuya.powerOnStatus")
			addOnce(ep, "tuya.switchType")
		case "NEO_AB02":
			addOnce(ep, "tuya.neoSiren")
		default:
			addOnce(ep, "tuya.powerOnStatus")
		}
	}
}

// setupPTVO attaches the firmware's generic multi-channel datapoints:
// one PTVO property per capability the simple descriptor's device id
// implies (CO2, temperature, switch action, LED pattern).
func setupPTVO(device *model.Device) {
	for _, ep := range device.Endpoints {
		switch ep.DeviceID {
		case 0x0302:
			addOnce(ep, "ptvo.temperature")
			addOnce(ep, "ptvo.co2")
		default:
			addOnce(ep, "ptvo.switchAction")
			addOnce(ep, "ptvo.pattern")
		}
	}
}

func setupKonke(device *model.Device) {
	for _, ep := range device.Endpoints {
		if ep.HasInCluster(clusterOnOff) {
			addOnce(ep, "konke.buttonAction")
		}
	}
}

func setupLifeControl(device *model.Device) {
	for _, ep := range device.Endpoints {
		addOnce(ep, "lifecontrol.airQuality")
	}
}

func setupPerenio(device *model.Device) {
	for _, ep := range device.Endpoints {
		if ep.HasInCluster(model.ClusterElectricalM) {
			addOnce(ep, "perenio.smartPlug")
		}
	}
}
