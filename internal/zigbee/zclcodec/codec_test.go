package zclcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZCLHeaderRoundTrip(t *testing.T) {
	frame := ZCLHeader(FCClusterSpecific|FCServerToClient, 0x7E, 0x0A, 0)
	h, n, err := ParseHeader(frame)
	assert.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, FCClusterSpecific|FCServerToClient, h.FrameControl)
	assert.Equal(t, byte(0x7E), h.TransactionID)
	assert.Equal(t, byte(0x0A), h.CommandID)
}

func TestZCLHeaderRoundTripWithManufacturerCode(t *testing.T) {
	frame := ZCLHeader(FCClusterSpecific, 0x01, 0x00, 0x115F)
	h, n, err := ParseHeader(frame)
	assert.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.True(t, h.HasManufacturerCode())
	assert.Equal(t, uint16(0x115F), h.ManufacturerCode)
}

func TestAttributesRequest(t *testing.T) {
	buf := AttributesRequest(0x7E, []uint16{0x0000}, 0)
	assert.Equal(t, []byte{0x00, 0x7E, CmdReadAttributes, 0x00, 0x00}, buf)
}

func TestZCLDataSizeFixedWidth(t *testing.T) {
	off := 0
	size, ok := ZCLDataSize(DataTypeUint8, nil, &off)
	assert.True(t, ok)
	assert.Equal(t, 1, size)
	assert.Equal(t, 0, off)

	off = 0
	size, ok = ZCLDataSize(DataTypeUint16, nil, &off)
	assert.True(t, ok)
	assert.Equal(t, 2, size)
}

func TestZCLDataSizeOctetStringReadsLengthPrefix(t *testing.T) {
	payload := []byte{0x03, 0xAA, 0xBB, 0xCC}
	off := 0
	size, ok := ZCLDataSize(DataTypeOctetStr, payload, &off)
	assert.True(t, ok)
	assert.Equal(t, 3, size)
	assert.Equal(t, 1, off)
}

func TestZCLDataSizeUnknownTypeIsNotOK(t *testing.T) {
	off := 0
	_, ok := ZCLDataSize(0x99, nil, &off)
	assert.False(t, ok)
}
