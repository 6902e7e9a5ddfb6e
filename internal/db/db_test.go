package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/zigbee/model"
)

func TestDeviceDB(t *testing.T) {
	os.RemoveAll("testdb")

	db, err := NewDeviceDB("testdb")
	assert.NoError(t, err)
	defer db.Close(context.Background())

	ctx := context.Background()

	dev1 := DeviceRecord{IEEEAddress: 12345, NetworkAddress: 7890, LogicalType: model.LogicalTypeRouter}
	dev2 := DeviceRecord{IEEEAddress: 99999, NetworkAddress: 8888, LogicalType: model.LogicalTypeRouter}

	assert.NoError(t, db.SaveDevice(ctx, dev1))
	assert.NoError(t, db.SaveDevice(ctx, dev2))

	devices, err := db.GetDevices(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(devices))

	assert.NoError(t, db.DeleteDevice(ctx, uint64(dev1.IEEEAddress)))

	devices, err = db.GetDevices(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(devices))
}

func TestGetDevice(t *testing.T) {
	os.RemoveAll("testdb")

	db, err := NewDeviceDB("testdb")
	assert.NoError(t, err)
	defer db.Close(context.Background())

	ctx := context.Background()

	dev1 := DeviceRecord{IEEEAddress: 12345, NetworkAddress: 7890, LogicalType: model.LogicalTypeRouter}
	dev2 := DeviceRecord{IEEEAddress: 99999, NetworkAddress: 8888, LogicalType: model.LogicalTypeRouter}

	assert.NoError(t, db.SaveDevice(ctx, dev1))
	assert.NoError(t, db.SaveDevice(ctx, dev2))

	device, err := db.GetDevice(ctx, uint64(dev2.IEEEAddress))
	assert.NoError(t, err)
	assert.Equal(t, dev2.IEEEAddress, device.IEEEAddress)
}

func TestGetDeviceNotExist(t *testing.T) {
	os.RemoveAll("testdb")

	db, err := NewDeviceDB("testdb")
	assert.NoError(t, err)
	defer db.Close(context.Background())

	ctx := context.Background()

	_, err = db.GetDevice(ctx, 12345)
	assert.Error(t, err)
}

func TestDeviceRecordRoundTrip(t *testing.T) {
	d := model.NewDevice(model.IEEEAddress(42))
	d.ManufacturerName = "Acme"
	d.ModelName = "Widget"
	d.InterviewState = model.InterviewFinished
	ep := d.Endpoint(1)
	ep.ProfileID = 0x0104
	ep.InClusterList = []model.ClusterID{model.ClusterBasic, model.ClusterOTAUpgrade}
	ep.DescriptorReceived = true

	record := NewDeviceRecord(d)
	restored := record.ToDevice()

	assert.Equal(t, d.ManufacturerName, restored.ManufacturerName)
	assert.Equal(t, d.InterviewState, restored.InterviewState)
	assert.Equal(t, ep.ProfileID, restored.Endpoints[1].ProfileID)
	assert.Equal(t, ep.InClusterList, restored.Endpoints[1].InClusterList)
}
