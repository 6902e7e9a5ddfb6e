// Package touchlink implements the inter-PAN TouchLink scan and
// factory-reset flow (C8), using the adapter's inter-PAN channel API.
package touchlink

import (
	"context"
	"math/rand"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

const (
	clusterTouchLink model.ClusterID = 0xF000

	cmdScanRequest      byte = 0x00
	cmdResetToFactory   byte = 0x07

	zigBeeInformation    byte = 0x04
	touchLinkInformation byte = 0x12

	firstChannel = 11
	lastChannel  = 26
)

// Adapter is the narrow slice of the C9 contract TouchLink needs.
type Adapter interface {
	SetInterPANChannel(ctx context.Context, channel uint8) error
	ResetInterPAN(ctx context.Context) error
	SendExtendedData(ctx context.Context, groupID uint16, clusterID uint16, payload []byte) error
	SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID uint16, payload []byte) error
}

type Scanner struct {
	adapter Adapter
	log     logger.Logger
}

func New(adapter Adapter, log logger.Logger) *Scanner {
	return &Scanner{adapter: adapter, log: log}
}

func scanRequestPayload(tid uint32) []byte {
	buf := zclcodec.PutLittleEndianUint32(tid)
	buf = append(buf, zigBeeInformation, touchLinkInformation)
	return buf
}

// Scan sweeps channels 11..26, sending a Scan Request inter-PAN frame
// with a random transaction id on each.
func (s *Scanner) Scan(ctx context.Context) error {
	for channel := firstChannel; channel <= lastChannel; channel++ {
		if err := s.adapter.SetInterPANChannel(ctx, uint8(channel)); err != nil {
			return err
		}

		tid := rand.Uint32()
		header := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, byte(tid), cmdScanRequest, 0)
		payload := append(header, scanRequestPayload(tid)...)

		if err := s.adapter.SendExtendedData(ctx, 0xFFFF, uint16(clusterTouchLink), payload); err != nil {
			s.log.Warn("touchlink scan request failed on channel %d: %v", channel, err)
		}
	}
	return s.adapter.ResetInterPAN(ctx)
}

// Reset sends a directed Reset-to-Factory command to addr after tuning
// the inter-PAN radio to the given channel.
func (s *Scanner) Reset(ctx context.Context, addr model.IEEEAddress, channel uint8) error {
	if err := s.adapter.SetInterPANChannel(ctx, channel); err != nil {
		return err
	}
	defer s.adapter.ResetInterPAN(ctx)

	tid := rand.Uint32()
	header := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, byte(tid), cmdResetToFactory, 0)

	return s.adapter.SendData(ctx, addr, model.EndpointID(1), uint16(clusterTouchLink), header)
}
