package property

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

func TestBatteryVoltageScenario(t *testing.T) {
	p := NewBatteryVoltage(nil)
	ok := p.ParseAttribute(nil, 0x0020, zclcodec.DataTypeUint8, []byte{0x1D})
	assert.True(t, ok)
	assert.Equal(t, 14, p.Value())
}

func TestColorXYScenario(t *testing.T) {
	p := NewColorXY(nil)
	assert.True(t, p.ParseAttribute(nil, 0x0003, zclcodec.DataTypeUint16, []byte{0xFF, 0x7F}))
	assert.True(t, p.ParseAttribute(nil, 0x0004, zclcodec.DataTypeUint16, []byte{0x00, 0x40}))

	xy := p.Value().([2]float64)
	assert.InDelta(t, 0.4999924, xy[0], 1e-6)
	assert.InDelta(t, 0.25000381, xy[1], 1e-6)
}

func TestIASZoneStatusScenario(t *testing.T) {
	p := NewIASZoneStatus(map[string]interface{}{"name": "alarm1"})
	ok := p.ParseCommand(nil, 0x00, []byte{0x05, 0x00})
	assert.True(t, ok)

	value := p.Value().(map[string]interface{})
	assert.Equal(t, true, value["alarm1"])
	assert.Equal(t, true, value["tamper"])
	assert.NotContains(t, value, "batteryLow")
}

func TestLUMICubeMovementScenario(t *testing.T) {
	p := NewLUMICubeMovement(nil)

	ok := p.ParseAttribute(nil, 0x0055, 0x39, []byte{0x82, 0x00}) // 130 LE
	assert.True(t, ok)
	assert.Equal(t, "flip", p.Value())

	ok = p.ParseAttribute(nil, 0x0055, 0x39, []byte{0x00, 0x00})
	assert.True(t, ok)
	assert.Equal(t, "shake", p.Value())

	ok = p.ParseAttribute(nil, 0x0055, 0x39, []byte{0x02, 0x00})
	assert.True(t, ok)
	assert.Equal(t, "wake", p.Value())
}

func TestTUYAPresenceSensorScenario(t *testing.T) {
	p := NewTUYAPresenceSensor(nil)

	// status, tid, dataPoint=0x07, dataType=0x02, length=0x0004 BE, value=00 00 00 2A
	payload := []byte{0x00, 0x01, 0x07, 0x02, 0x00, 0x04, 0x00, 0x00, 0x00, 0x2A}
	ok := p.ParseCommand(nil, 0x01, payload)
	assert.True(t, ok)

	value := p.Value().(map[string]interface{})
	assert.Equal(t, uint32(42), value["duration"])
}

func TestBatteryPercentageDividesByTwo(t *testing.T) {
	p := NewBatteryPercentage(nil)
	ok := p.ParseAttribute(nil, 0x0021, zclcodec.DataTypeUint8, []byte{200})
	assert.True(t, ok)
	assert.Equal(t, 100, p.Value())
}

func TestBatteryPercentageUndividedOption(t *testing.T) {
	p := NewBatteryPercentage(map[string]interface{}{"batteryUndivided": true})
	ok := p.ParseAttribute(nil, 0x0021, zclcodec.DataTypeUint8, []byte{77})
	assert.True(t, ok)
	assert.Equal(t, 77, p.Value())
}

func TestPropertyMismatchIsSilentNoop(t *testing.T) {
	p := NewBatteryVoltage(nil)
	ok := p.ParseAttribute(nil, 0x0020, zclcodec.DataTypeUint16, []byte{0x1D, 0x00})
	assert.False(t, ok)
	assert.Nil(t, p.Value())
}

func TestPowerRequiresMultiplierAndDivider(t *testing.T) {
	p := NewPower(nil)
	assert.True(t, p.ParseAttribute(nil, 0x050B, zclcodec.DataTypeInt16, zclcodec.PutLittleEndianUint16(1000)))
	assert.Nil(t, p.Value())

	assert.True(t, p.ParseAttribute(nil, 0x0301, zclcodec.DataTypeUint16, zclcodec.PutLittleEndianUint16(1)))
	assert.True(t, p.ParseAttribute(nil, 0x0302, zclcodec.DataTypeUint16, zclcodec.PutLittleEndianUint16(10)))

	assert.Equal(t, 100.0, p.Value())
}

func TestRegistryBuildsByName(t *testing.T) {
	p := New("batteryVoltage", nil)
	assert.NotNil(t, p)
	assert.IsType(t, &BatteryVoltage{}, p)

	assert.Nil(t, New("does-not-exist", nil))
}

func TestLUMIDataBatteryDatapoint(t *testing.T) {
	p := NewLUMIData(nil)
	// datapointId=0x01, itemType=uint8 (0x20), value=0x1D
	ok := p.ParseAttribute(&model.Device{}, 0x00F7, zclcodec.DataTypeOctetStr, []byte{0x01, zclcodec.DataTypeUint8, 0x1D})
	assert.True(t, ok)

	value := p.Value().(map[string]interface{})
	assert.Equal(t, 14, value["batteryVoltage"])
}
