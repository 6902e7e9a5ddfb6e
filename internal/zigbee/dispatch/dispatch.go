// Package dispatch implements the message engine (C6): it routes
// decoded adapter frames to the interview FSM, property parsers, the
// OTA responder, and the Groups/Time cluster responders.
package dispatch

import (
	"context"
	"reflect"
	"time"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// zigbeeEpoch is 2000-01-01T00:00:00Z expressed as a Unix timestamp,
// the ZigBee UTCTime epoch offset.
const zigbeeEpoch = 946684800

// Responder is the narrow slice of the C9 contract dispatch needs to
// answer peers directly (default responses, time reads, group/ota
// replies).
type Responder interface {
	SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, payload []byte) error
}

// OTAHandler answers cluster 0x0019 commands; satisfied by the ota
// package.
type OTAHandler interface {
	HandleCommand(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, cmdID byte, payload []byte) error
}

// Interviewer is notified when a write-attributes response arrives for
// the IAS Zone cluster, which kicks the interview FSM's Enroll phase.
type Interviewer interface {
	NotifyIASWriteSucceeded(device *model.Device, ep *model.Endpoint)
	NotifyInterviewTick(device *model.Device)
}

// Engine ties together the catalogue, the interview FSM and the
// property registry to turn adapter frames into model mutations and
// upward signals.
type Engine struct {
	catalogue   *model.Catalogue
	responder   Responder
	ota         OTAHandler
	interviewer Interviewer
	log         logger.Logger

	onEndpointUpdated func(device *model.Device, ep *model.Endpoint)
	onLUMICluster     func(device *model.Device) // hook for devices that need the IAS short-circuit bypassed
}

func New(catalogue *model.Catalogue, responder Responder, ota OTAHandler, interviewer Interviewer, log logger.Logger, onEndpointUpdated func(device *model.Device, ep *model.Endpoint)) *Engine {
	return &Engine{
		catalogue:         catalogue,
		responder:         responder,
		ota:               ota,
		interviewer:       interviewer,
		log:               log,
		onEndpointUpdated: onEndpointUpdated,
	}
}

// MessageReceived is the entry point for a unicast incoming application
// message. It decodes the ZCL header, updates last-seen/link quality,
// and dispatches to the cluster-specific or global command path.
func (e *Engine) MessageReceived(ctx context.Context, device *model.Device, networkAddress model.NetworkAddress, endpointID model.EndpointID, clusterID model.ClusterID, linkQuality uint8, frame []byte) {
	device.LastSeen = time.Now()
	device.NetworkAddress = networkAddress
	device.Neighbors[networkAddress] = linkQuality

	header, consumed, err := zclcodec.ParseHeader(frame)
	if err != nil {
		e.log.Warn("malformed ZCL frame from device %016X: %v", uint64(device.IEEEAddress), err)
		return
	}
	payload := frame[consumed:]
	ep := device.Endpoint(endpointID)

	if header.FrameControl&zclcodec.FCClusterSpecific != 0 {
		e.clusterCommandReceived(ctx, device, ep, clusterID, header, payload)
	} else {
		e.globalCommandReceived(ctx, device, ep, clusterID, header, payload)
	}

	needsDefaultResponse := header.FrameControl&zclcodec.FCDisableDefaultResponse == 0 &&
		(header.FrameControl&zclcodec.FCClusterSpecific != 0 || header.CommandID == zclcodec.CmdReportAttributes)
	if needsDefaultResponse {
		e.sendDefaultResponse(ctx, device, ep, clusterID, header)
	}
}

func (e *Engine) clusterCommandReceived(ctx context.Context, device *model.Device, ep *model.Endpoint, clusterID model.ClusterID, header zclcodec.Header, payload []byte) {
	switch clusterID {
	case model.ClusterGroups:
		e.groupsCommandReceived(device, ep, header.CommandID, payload)
		return
	case model.ClusterOTAUpgrade:
		if e.ota != nil {
			if err := e.ota.HandleCommand(ctx, device, ep.ID, header.TransactionID, header.CommandID, payload); err != nil {
				e.log.Warn("OTA command 0x%02X failed for device %016X: %v", header.CommandID, uint64(device.IEEEAddress), err)
			}
		}
		return
	}

	claimed := false
	for _, p := range ep.Properties {
		if p.ClusterID() != clusterID {
			continue
		}
		before := p.Value()
		if p.ParseCommand(device, header.CommandID, payload) {
			claimed = true
			if !reflect.DeepEqual(p.Value(), before) {
				ep.Updated = true
			}
		}
	}

	if !claimed {
		e.log.Debug("no property claimed command 0x%02X on cluster 0x%04X for device %016X", header.CommandID, uint16(clusterID), uint64(device.IEEEAddress))
	}

	if ep.Updated && e.onEndpointUpdated != nil {
		e.onEndpointUpdated(device, ep)
		ep.Updated = false
	}
}

// ZCL general status codes the Groups cluster's add/remove responses
// report.
const (
	statusSuccess           = 0x00
	statusInsufficientSpace = 0x89
	statusDuplicateExists   = 0x8A
	statusNotFound          = 0x8B
)

// groupsCommandReceived answers the Groups cluster's AddGroupResponse
// (0x00) and RemoveGroupResponse (0x03), each a (status:u8,
// groupId:u16 LE) pair; every other command id is logged and dropped,
// matching the source's clusterCommandReceived Groups branch.
func (e *Engine) groupsCommandReceived(device *model.Device, ep *model.Endpoint, cmdID byte, payload []byte) {
	if cmdID != 0x00 && cmdID != 0x03 {
		e.log.Debug("unrecognised groups cluster command 0x%02X from device %016X", cmdID, uint64(device.IEEEAddress))
		return
	}
	if len(payload) < 3 {
		e.log.Warn("malformed group control response from device %016X", uint64(device.IEEEAddress))
		return
	}

	status := payload[0]
	groupID := zclcodec.LittleEndianUint16(payload[1:])
	action := "added"
	if cmdID == 0x03 {
		action = "removed"
	}

	switch status {
	case statusSuccess:
		e.log.Debug("device %016X endpoint %d group 0x%04X successfully %s", uint64(device.IEEEAddress), ep.ID, groupID, action)
	case statusInsufficientSpace:
		e.log.Warn("device %016X endpoint %d group 0x%04X not added, no free space available", uint64(device.IEEEAddress), ep.ID, groupID)
	case statusDuplicateExists:
		e.log.Warn("device %016X endpoint %d group 0x%04X already exists", uint64(device.IEEEAddress), ep.ID, groupID)
	case statusNotFound:
		e.log.Warn("device %016X endpoint %d group 0x%04X not found", uint64(device.IEEEAddress), ep.ID, groupID)
	default:
		e.log.Warn("device %016X endpoint %d group 0x%04X %s command status 0x%02X unrecognised", uint64(device.IEEEAddress), ep.ID, groupID, action, status)
	}
}

func (e *Engine) globalCommandReceived(ctx context.Context, device *model.Device, ep *model.Endpoint, clusterID model.ClusterID, header zclcodec.Header, payload []byte) {
	switch header.CommandID {
	case zclcodec.CmdReadAttributes:
		if clusterID == model.ClusterTime {
			e.handleTimeRead(ctx, device, ep, header, payload)
			return
		}
	case zclcodec.CmdReadAttributesResponse, zclcodec.CmdReportAttributes:
		e.walkAttributeRecords(device, ep, clusterID, header.CommandID, payload)
	case zclcodec.CmdWriteAttributesResponse:
		if clusterID == model.ClusterIASZone && len(payload) >= 1 && payload[0] == 0 {
			ep.ZoneStatus = model.ZoneStatusEnroll
			if e.interviewer != nil {
				e.interviewer.NotifyIASWriteSucceeded(device, ep)
			}
		}
	case zclcodec.CmdConfigureReportingResp, zclcodec.CmdDefaultResponse:
		// absorbed silently
	default:
		e.log.Debug("unrecognised global command 0x%02X on cluster 0x%04X", header.CommandID, uint16(clusterID))
	}
}

// walkAttributeRecords parses the record sequence
// (attrId:u16 LE [, status:u8], dataType:u8, value...) and forwards
// each record to whichever property on ep claims its attribute id,
// short-circuiting Basic and IAS Zone clusters to the interview FSM
// (those never reach property parsers).
func (e *Engine) walkAttributeRecords(device *model.Device, ep *model.Endpoint, clusterID model.ClusterID, cmdID byte, payload []byte) {
	offset := 0
	isBasicOrIAS := clusterID == model.ClusterBasic || clusterID == model.ClusterIASZone

	for offset+3 <= len(payload) {
		attrID := zclcodec.LittleEndianUint16(payload[offset:])
		offset += 2

		if cmdID == zclcodec.CmdReadAttributesResponse {
			if offset >= len(payload) {
				return
			}
			status := payload[offset]
			offset++
			if status != 0 {
				continue
			}
		}

		if offset >= len(payload) {
			return
		}
		dataType := payload[offset]
		offset++

		size, ok := zclcodec.ZCLDataSize(dataType, payload, &offset)
		if !ok || offset+size > len(payload) {
			e.log.Warn("malformed attribute record (type 0x%02X) from device %016X", dataType, uint64(device.IEEEAddress))
			return
		}
		value := payload[offset : offset+size]
		offset += size

		if isBasicOrIAS {
			// Consumed by the interview FSM via its own ReadAttributes
			// call path; dispatch only updates last-seen bookkeeping
			// here and never hands these to property parsers.
			continue
		}

		e.applyAttribute(device, ep, attrID, dataType, value)
	}
}

func (e *Engine) applyAttribute(device *model.Device, ep *model.Endpoint, attrID uint16, dataType byte, value []byte) {
	claimed := false
	for _, p := range ep.Properties {
		before := p.Value()
		if p.ParseAttribute(device, attrID, dataType, value) {
			claimed = true
			if !reflect.DeepEqual(p.Value(), before) {
				ep.Updated = true
			}
		}
	}
	if !claimed {
		e.log.Debug("no property found for attribute 0x%04X on device %016X", attrID, uint64(device.IEEEAddress))
	}
	if ep.Updated && e.onEndpointUpdated != nil {
		e.onEndpointUpdated(device, ep)
		ep.Updated = false
	}
}

// handleTimeRead answers CMD_READ_ATTRIBUTES on the Time cluster
// (0x000A): attr 0x0000 (UTC) as seconds since 2000-01-01, 0x0002 (tz
// offset) as i32, 0x0007 (local time) as UTC+offset; everything else
// replies STATUS_UNSUPPORTED_ATTRIBUTE.
func (e *Engine) handleTimeRead(ctx context.Context, device *model.Device, ep *model.Endpoint, header zclcodec.Header, payload []byte) {
	var attrIDs []uint16
	for i := 0; i+2 <= len(payload); i += 2 {
		attrIDs = append(attrIDs, zclcodec.LittleEndianUint16(payload[i:]))
	}

	out := zclcodec.ZCLHeader(zclcodec.FCServerToClient|zclcodec.FCDisableDefaultResponse, header.TransactionID, zclcodec.CmdReadAttributesResponse, 0)
	now := uint32(time.Now().Unix() - zigbeeEpoch)

	const statusUnsupportedAttribute = 0x86

	for _, attrID := range attrIDs {
		out = append(out, byte(attrID), byte(attrID>>8))
		switch attrID {
		case 0x0000:
			out = append(out, 0x00, zclcodec.DataTypeUTCTime)
			out = append(out, zclcodec.PutLittleEndianUint32(now)...)
		case 0x0002:
			out = append(out, 0x00, zclcodec.DataTypeInt32)
			out = append(out, zclcodec.PutLittleEndianUint32(0)...)
		case 0x0007:
			out = append(out, 0x00, zclcodec.DataTypeUTCTime)
			out = append(out, zclcodec.PutLittleEndianUint32(now)...)
		default:
			out = append(out, statusUnsupportedAttribute)
		}
	}

	if err := e.responder.SendData(ctx, device.IEEEAddress, ep.ID, model.ClusterTime, out); err != nil {
		e.log.Warn("time cluster response failed for device %016X: %v", uint64(device.IEEEAddress), err)
	}
}

func (e *Engine) sendDefaultResponse(ctx context.Context, device *model.Device, ep *model.Endpoint, clusterID model.ClusterID, header zclcodec.Header) {
	out := zclcodec.ZCLHeader(zclcodec.FCServerToClient, header.TransactionID, zclcodec.CmdDefaultResponse, 0)
	out = append(out, header.CommandID, 0x00)
	if err := e.responder.SendData(ctx, device.IEEEAddress, ep.ID, clusterID, out); err != nil {
		e.log.Warn("default response failed for device %016X: %v", uint64(device.IEEEAddress), err)
	}
}
