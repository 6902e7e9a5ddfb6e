// Package ota implements the OTA upgrade responder (C7): it serves a
// firmware image over ZCL cluster 0x0019, opening and closing the
// backing file anew for every incoming command.
package ota

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

const (
	cmdImageRequest       byte = 0x01
	cmdImageResponse      byte = 0x02
	cmdImageBlockRequest  byte = 0x03
	cmdImageBlockResponse byte = 0x05
	cmdUpgradeEndRequest  byte = 0x06
	cmdUpgradeEndResponse byte = 0x07

	statusSuccess          byte = 0x00
	statusNoImageAvailable byte = 0x98
)

// otaFileHeader is the fixed portion of the OTA image file header this
// responder understands: manufacturerCode, imageType, fileVersion,
// imageSize, all little-endian, followed immediately by image bytes.
type otaFileHeader struct {
	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
	ImageSize        uint32
}

const otaHeaderSize = 12

func readOTAFileHeader(f *os.File) (otaFileHeader, error) {
	buf := make([]byte, otaHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return otaFileHeader{}, err
	}
	return otaFileHeader{
		ManufacturerCode: zclcodec.LittleEndianUint16(buf[0:2]),
		ImageType:        zclcodec.LittleEndianUint16(buf[2:4]),
		FileVersion:      zclcodec.LittleEndianUint32(buf[4:8]),
		ImageSize:        zclcodec.LittleEndianUint32(buf[8:12]),
	}, nil
}

// Responder is the narrow slice of the C9 contract OTA needs to send
// its replies.
type Responder interface {
	SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, payload []byte) error
}

// Handler serves OTA upgrade commands for devices with a configured
// pending file name.
type Handler struct {
	mu        sync.Mutex
	fileNames map[model.IEEEAddress]string

	responder Responder
	log       logger.Logger
}

func New(responder Responder, log logger.Logger) *Handler {
	return &Handler{
		fileNames: make(map[model.IEEEAddress]string),
		responder: responder,
		log:       log,
	}
}

// OTAUpgrade configures fileName as the pending image for device;
// clearing it (fileName == "") cancels any in-progress upgrade.
func (h *Handler) OTAUpgrade(device model.IEEEAddress, fileName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if fileName == "" {
		delete(h.fileNames, device)
		return
	}
	h.fileNames[device] = fileName
}

func (h *Handler) fileNameFor(device model.IEEEAddress) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	name, ok := h.fileNames[device]
	return name, ok
}

// HandleCommand dispatches one incoming cluster 0x0019 command.
func (h *Handler) HandleCommand(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, cmdID byte, payload []byte) error {
	switch cmdID {
	case cmdImageRequest:
		return h.handleImageRequest(ctx, device, ep, tid, payload)
	case cmdImageBlockRequest:
		return h.handleImageBlockRequest(ctx, device, ep, tid, payload)
	case cmdUpgradeEndRequest:
		return h.handleUpgradeEndRequest(ctx, device, ep, tid, payload)
	default:
		h.log.Warn("unrecognised OTA command 0x%02X from device %016X", cmdID, uint64(device.IEEEAddress))
		return nil
	}
}

func (h *Handler) handleImageRequest(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, payload []byte) error {
	if len(payload) < 10 {
		return fmt.Errorf("ota: image request payload too short")
	}
	// fieldControl:u8, manufacturerCode:u16, imageType:u16, fileVersion:u32
	manufacturerCode := zclcodec.LittleEndianUint16(payload[1:3])
	imageType := zclcodec.LittleEndianUint16(payload[3:5])
	fileVersion := zclcodec.LittleEndianUint32(payload[5:9])

	fileName, ok := h.fileNameFor(device.IEEEAddress)
	if !ok {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}

	f, err := os.Open(fileName)
	if err != nil {
		h.log.Warn("OTA image file open failed for device %016X: %v", uint64(device.IEEEAddress), err)
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}
	defer f.Close()

	header, err := readOTAFileHeader(f)
	if err != nil {
		h.log.Warn("OTA image header read failed for device %016X: %v", uint64(device.IEEEAddress), err)
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}

	if header.ManufacturerCode != manufacturerCode || header.ImageType != imageType || header.FileVersion == fileVersion {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}

	return h.sendImageResponse(ctx, device, ep, tid, statusSuccess, header, 0)
}

func (h *Handler) sendImageResponse(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, status byte, header otaFileHeader, unused uint8) error {
	out := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific|zclcodec.FCServerToClient, tid, cmdImageResponse, 0)
	out = append(out, status)
	if status == statusSuccess {
		out = append(out, zclcodec.PutLittleEndianUint16(header.ManufacturerCode)...)
		out = append(out, zclcodec.PutLittleEndianUint16(header.ImageType)...)
		out = append(out, zclcodec.PutLittleEndianUint32(header.FileVersion)...)
		out = append(out, zclcodec.PutLittleEndianUint32(header.ImageSize)...)
	}
	return h.responder.SendData(ctx, device.IEEEAddress, ep, model.ClusterOTAUpgrade, out)
}

func (h *Handler) handleImageBlockRequest(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, payload []byte) error {
	if len(payload) < 15 {
		return fmt.Errorf("ota: image block request payload too short")
	}
	fileOffset := zclcodec.LittleEndianUint32(payload[9:13])
	dataSizeMax := payload[13]

	fileName, ok := h.fileNameFor(device.IEEEAddress)
	if !ok {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}

	f, err := os.Open(fileName)
	if err != nil {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}
	defer f.Close()

	if _, err := f.Seek(int64(fileOffset), io.SeekStart); err != nil {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}

	block := make([]byte, dataSizeMax)
	n, err := f.Read(block)
	if err != nil && err != io.EOF {
		return h.sendImageResponse(ctx, device, ep, tid, statusNoImageAvailable, otaFileHeader{}, 0)
	}
	block = block[:n]

	out := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific|zclcodec.FCServerToClient, tid, cmdImageBlockResponse, 0)
	out = append(out, statusSuccess)
	out = append(out, zclcodec.PutLittleEndianUint32(fileOffset)...)
	out = append(out, byte(len(block)))
	out = append(out, block...)
	return h.responder.SendData(ctx, device.IEEEAddress, ep, model.ClusterOTAUpgrade, out)
}

func (h *Handler) handleUpgradeEndRequest(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, payload []byte) error {
	if len(payload) >= 1 && payload[0] != 0 {
		h.log.Warn("OTA upgrade end reported failure status 0x%02X for device %016X", payload[0], uint64(device.IEEEAddress))
	}
	h.OTAUpgrade(device.IEEEAddress, "")

	out := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific|zclcodec.FCServerToClient, tid, cmdUpgradeEndResponse, 0)
	out = append(out, zclcodec.PutLittleEndianUint32(0)...) // currentTime
	out = append(out, zclcodec.PutLittleEndianUint32(0)...) // upgradeTime
	return h.responder.SendData(ctx, device.IEEEAddress, ep, model.ClusterOTAUpgrade, out)
}
