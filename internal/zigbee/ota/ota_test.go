package ota

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

type captureResponder struct {
	lastPayload []byte
}

func (r *captureResponder) SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, payload []byte) error {
	r.lastPayload = payload
	return nil
}

func writeTestImage(t *testing.T, dir string) string {
	path := filepath.Join(dir, "image.ota")
	header := append(zclcodec.PutLittleEndianUint16(0x1234), zclcodec.PutLittleEndianUint16(0x01)...)
	header = append(header, zclcodec.PutLittleEndianUint32(0x00010002)...)
	header = append(header, zclcodec.PutLittleEndianUint32(1024)...)

	body := make([]byte, 1024)
	for i := range body {
		body[i] = byte(i)
	}

	require.NoError(t, os.WriteFile(path, append(header, body...), 0o644))
	return path
}

func TestImageBlockRequestScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir)

	responder := &captureResponder{}
	h := New(responder, logger.GetLogger("[test]", logger.LogLevelDebug))

	device := model.NewDevice(model.IEEEAddress(1))
	h.OTAUpgrade(device.IEEEAddress, path)

	payload := make([]byte, 15)
	payload[13] = 64 // dataSizeMax
	err := h.HandleCommand(context.Background(), device, model.EndpointID(1), 0x01, cmdImageBlockRequest, payload)
	require.NoError(t, err)

	resp := responder.lastPayload
	require.NotNil(t, resp)

	header, consumed, err := zclcodec.ParseHeader(resp)
	require.NoError(t, err)
	assert.Equal(t, cmdImageBlockResponse, header.CommandID)

	body := resp[consumed:]
	assert.Equal(t, statusSuccess, body[0])
	dataSize := body[5]
	assert.Equal(t, byte(64), dataSize)
	// The block starts at file offset 0, i.e. with the OTA header's
	// little-endian manufacturer code 0x1234.
	assert.Equal(t, byte(0x34), body[6])
	assert.Equal(t, byte(0x12), body[7])
}
