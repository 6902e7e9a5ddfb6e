package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

func TestDecodeZCLValueScalarTypes(t *testing.T) {
	assert.Equal(t, true, decodeZCLValue(zclcodec.DataTypeBoolean, []byte{0x01}))
	assert.Equal(t, uint8(0x2A), decodeZCLValue(zclcodec.DataTypeUint8, []byte{0x2A}))
	assert.Equal(t, int8(-1), decodeZCLValue(zclcodec.DataTypeInt8, []byte{0xFF}))
	assert.Equal(t, uint16(0x0102), decodeZCLValue(zclcodec.DataTypeUint16, []byte{0x02, 0x01}))
	assert.Equal(t, "hi", decodeZCLValue(zclcodec.DataTypeCharacterStr, []byte("hi")))
}

func TestDecodeZCLValueFallsBackToRawBytesOnShortPayload(t *testing.T) {
	raw := []byte{0x01}
	assert.Equal(t, raw, decodeZCLValue(zclcodec.DataTypeUint16, raw))
}

func TestToUint16sConvertsClusterIDSlice(t *testing.T) {
	ids := []model.ClusterID{model.ClusterBasic, model.ClusterOTAUpgrade}
	assert.Equal(t, []uint16{0x0000, 0x0019}, toUint16s(ids))
}
