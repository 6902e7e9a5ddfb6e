package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/zigbee/model"
)

func newTestDevice(clusters ...model.ClusterID) *model.Device {
	d := model.NewDevice(model.IEEEAddress(0x0011223344556677))
	ep := d.Endpoint(1)
	ep.InClusterList = clusters
	return d
}

func TestSetupAttachesGenericOnOffProperties(t *testing.T) {
	d := newTestDevice(clusterOnOff, clusterLevelControl)

	Setup(d)

	ep := d.Endpoints[1]
	assert.NotNil(t, ep.PropertyByCluster(clusterOnOff))
	assert.NotNil(t, ep.ActionByName("state"))
	assert.NotNil(t, ep.ActionByName("brightness"))
}

func TestSetupIsIdempotent(t *testing.T) {
	d := newTestDevice(clusterOnOff, model.ClusterIASZone)

	Setup(d)
	Setup(d)

	ep := d.Endpoints[1]
	count := 0
	for _, p := range ep.Properties {
		if p.Name() == "zoneStatus" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	actionCount := 0
	for _, a := range ep.Actions {
		if a.Name == "state" {
			actionCount++
		}
	}
	assert.Equal(t, 1, actionCount)
}

func TestSetupColorControlAttachesBothColorActions(t *testing.T) {
	d := newTestDevice(clusterColorControl)

	Setup(d)

	ep := d.Endpoints[1]
	assert.NotNil(t, ep.ActionByName("colorXY"))
	assert.NotNil(t, ep.ActionByName("colorTemperature"))
	assert.NotNil(t, ep.PropertyByCluster(clusterColorControl))
}

func TestSetupLUMIOverrideAddsVendorProperties(t *testing.T) {
	d := newTestDevice(model.ClusterBasic, clusterOnOff, clusterPowerConfig)
	d.ManufacturerName = "LUMI"

	Setup(d)

	ep := d.Endpoints[1]
	names := map[string]bool{}
	for _, p := range ep.Properties {
		names[p.Name()] = true
	}
	assert.True(t, names["lumi.data"])
	assert.True(t, names["lumi.buttonAction"])
	assert.True(t, names["lumi.power"])
	// the generic pass still runs underneath the override
	assert.True(t, names["status"])
	assert.True(t, names["batteryPercentage"])
}

func TestSetupTUYAOverridePicksModelSpecificDatapoints(t *testing.T) {
	d := newTestDevice(model.ClusterTuya)
	d.ManufacturerName = "_TZE200"
	d.ModelName = "TS0601_presence"

	Setup(d)

	ep := d.Endpoints[1]
	assert.NotNil(t, ep.PropertyByCluster(model.ClusterTuya))
	found := false
	for _, p := range ep.Properties {
		if p.Name() == "tuya.presenceSensor" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestOnOffActionRequestEncodesCommandByte(t *testing.T) {
	a := onOffAction("state", 0x00, 0x01)

	onFrame, err := a.Request("on")
	assert.NoError(t, err)
	assert.Equal(t, byte(0x01), onFrame[2])

	offFrame, err := a.Request("off")
	assert.NoError(t, err)
	assert.Equal(t, byte(0x00), offFrame[2])

	toggleFrame, err := a.Request("toggle")
	assert.NoError(t, err)
	assert.Equal(t, byte(0x02), toggleFrame[2])
}
