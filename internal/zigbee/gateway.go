package zigbee

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/adapter"
	"zigcored/internal/zigbee/interview"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/zclcodec"
)

// gateway is the single adapter-facing funnel: every component above
// C9 that needs to put bytes on the wire or ask the adapter a
// question goes through here. It satisfies scheduler.Transmitter,
// dispatch.Responder, ota.Responder and interview.Adapter, and owns
// the one piece of request/response correlation the core needs above
// the adapter's own callback events: a synchronous read-attributes
// round trip for the interview FSM.
type gateway struct {
	adapter adapter.Adapter
	log     logger.Logger

	mu      sync.Mutex
	tid     byte
	waiting map[model.IEEEAddress]*pendingRead
}

type pendingRead struct {
	clusterID model.ClusterID
	ch        chan zclReply
}

type zclReply struct {
	header  zclcodec.Header
	payload []byte
}

func newGateway(a adapter.Adapter, log logger.Logger) *gateway {
	return &gateway{
		adapter: a,
		log:     log,
		waiting: make(map[model.IEEEAddress]*pendingRead),
	}
}

func (g *gateway) nextTID() byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tid++
	return g.tid
}

// deliverIfAwaited hands frame to a pending ReadAttributes call if one
// is outstanding for addr on clusterID and the frame is a read-
// attributes response. It reports whether it consumed the frame;
// engine.handleEvent must skip normal dispatch in that case so the
// response is not also processed as an unsolicited report.
func (g *gateway) deliverIfAwaited(addr model.IEEEAddress, clusterID model.ClusterID, frame []byte) bool {
	header, consumed, err := zclcodec.ParseHeader(frame)
	if err != nil || header.CommandID != zclcodec.CmdReadAttributesResponse {
		return false
	}

	g.mu.Lock()
	p, ok := g.waiting[addr]
	if ok && p.clusterID == clusterID {
		delete(g.waiting, addr)
	} else {
		ok = false
	}
	g.mu.Unlock()

	if !ok {
		return false
	}

	p.ch <- zclReply{header: header, payload: frame[consumed:]}
	return true
}

// Transmit satisfies scheduler.Transmitter: it turns one scheduled
// Request into the adapter call its Kind implies. LQI requests update
// the device's neighbour table directly and then deliberately have no
// further transition driven from here. LQI (like Interview) has no
// completion callback, and tick only removes Finished or Aborted
// entries, so an LQI request the adapter accepts stays Sent in the
// table; only an adapter refusal (Aborted) removes it.
func (g *gateway) Transmit(ctx context.Context, req *model.Request) error {
	switch req.Kind {
	case model.RequestData:
		p, ok := req.Payload.(dataRequestPayload)
		if !ok {
			return fmt.Errorf("gateway: request %d has wrong payload type for Data", req.ID)
		}
		return g.adapter.SendData(ctx, req.Device, p.endpoint, uint16(p.clusterID), p.payload)

	case model.RequestBinding:
		p, ok := req.Payload.(bindingRequestPayload)
		if !ok {
			return fmt.Errorf("gateway: request %d has wrong payload type for Binding", req.ID)
		}
		return g.adapter.Bind(ctx, req.Device, p.srcEndpoint, uint16(p.clusterID), p.dst, p.dstEndpoint)

	case model.RequestRemove:
		return g.adapter.Leave(ctx, req.Device)

	case model.RequestLQI:
		neighbors, err := g.adapter.LQI(ctx, req.Device)
		if err != nil {
			return err
		}
		if p, ok := req.Payload.(lqiRequestPayload); ok && p.onResult != nil {
			p.onResult(neighbors)
		}
		return nil

	case model.RequestInterview:
		// Interview requests occupy a scheduler slot so the table
		// reflects "one interview outstanding" per device, but the FSM
		// drives its own adapter calls directly through this same
		// gateway rather than through Transmit; nothing to send here.
		return nil
	}

	return fmt.Errorf("gateway: unknown request kind %v", req.Kind)
}

// SendData satisfies dispatch.Responder and ota.Responder.
func (g *gateway) SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, payload []byte) error {
	return g.adapter.SendData(ctx, addr, ep, uint16(clusterID), payload)
}

// IEEEAddress satisfies interview.Adapter.
func (g *gateway) IEEEAddress() model.IEEEAddress { return g.adapter.IEEEAddress() }

// NodeDescriptor satisfies interview.Adapter.
func (g *gateway) NodeDescriptor(ctx context.Context, addr model.IEEEAddress) (interview.NodeDescriptor, error) {
	d, err := g.adapter.NodeDescriptor(ctx, addr)
	if err != nil {
		return interview.NodeDescriptor{}, err
	}
	return interview.NodeDescriptor{LogicalType: d.LogicalType, ManufacturerCode: d.ManufacturerCode}, nil
}

// ActiveEndpoints satisfies interview.Adapter.
func (g *gateway) ActiveEndpoints(ctx context.Context, addr model.IEEEAddress) ([]model.EndpointID, error) {
	return g.adapter.ActiveEndpoints(ctx, addr)
}

// SimpleDescriptor satisfies interview.Adapter.
func (g *gateway) SimpleDescriptor(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID) (interview.SimpleDescriptor, error) {
	d, err := g.adapter.SimpleDescriptor(ctx, addr, ep)
	if err != nil {
		return interview.SimpleDescriptor{}, err
	}
	return interview.SimpleDescriptor{
		ProfileID:      d.ProfileID,
		DeviceID:       d.DeviceID,
		InClusterList:  d.InClusterList,
		OutClusterList: d.OutClusterList,
	}, nil
}

// ReadAttributes satisfies interview.Adapter. It builds a CMD_READ_
// ATTRIBUTES frame, sends it, and blocks for the matching response or
// ctx's deadline - the interview FSM's one genuinely synchronous
// round trip above the adapter's own async event stream.
func (g *gateway) ReadAttributes(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, attrIDs []uint16) (map[uint16]interview.Attribute, error) {
	tid := g.nextTID()
	frame := zclcodec.AttributesRequest(tid, attrIDs, 0)

	ch := make(chan zclReply, 1)
	g.mu.Lock()
	g.waiting[addr] = &pendingRead{clusterID: clusterID, ch: ch}
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.waiting, addr)
		g.mu.Unlock()
	}()

	if err := g.adapter.SendData(ctx, addr, ep, uint16(clusterID), frame); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	select {
	case reply := <-ch:
		return decodeAttributeRecords(reply.payload), nil
	case <-readCtx.Done():
		return nil, fmt.Errorf("gateway: read attributes timed out for device %016X cluster 0x%04X", uint64(addr), uint16(clusterID))
	}
}

// decodeAttributeRecords walks a CMD_READ_ATTRIBUTES_RESPONSE body:
// (attrId:u16, status:u8, dataType:u8, value...), skipping records
// whose status is non-zero.
func decodeAttributeRecords(payload []byte) map[uint16]interview.Attribute {
	out := make(map[uint16]interview.Attribute)
	offset := 0
	for offset+4 <= len(payload) {
		attrID := zclcodec.LittleEndianUint16(payload[offset:])
		offset += 2
		status := payload[offset]
		offset++
		if status != 0 {
			continue
		}
		dataType := payload[offset]
		offset++
		size, ok := zclcodec.ZCLDataSize(dataType, payload, &offset)
		if !ok || offset+size > len(payload) {
			return out
		}
		out[attrID] = interview.Attribute{DataType: dataType, Value: payload[offset : offset+size]}
		offset += size
	}
	return out
}

// WriteAttribute satisfies interview.Adapter. It fires a CMD_WRITE_
// ATTRIBUTES frame and does not wait for the response: the interview
// FSM learns of success through dispatch's CmdWriteAttributesResponse
// handling, which calls back through Interviewer.
func (g *gateway) WriteAttribute(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, attrID uint16, dataType byte, value []byte) error {
	tid := g.nextTID()
	frame := zclcodec.ZCLHeader(0, tid, zclcodec.CmdWriteAttributes, 0)
	frame = append(frame, byte(attrID), byte(attrID>>8), dataType)
	frame = append(frame, value...)
	return g.adapter.SendData(ctx, addr, ep, uint16(clusterID), frame)
}

// SendClusterCommand satisfies interview.Adapter, used for the IAS
// Zone ZoneEnrollResponse.
func (g *gateway) SendClusterCommand(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID model.ClusterID, cmdID byte, payload []byte) error {
	tid := g.nextTID()
	frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, tid, cmdID, 0)
	frame = append(frame, payload...)
	return g.adapter.SendData(ctx, addr, ep, uint16(clusterID), frame)
}

// touchlinkAdapter adapts gateway's model.ClusterID-typed SendData to
// the plain-uint16 shape touchlink.Adapter declares (TouchLink frames
// are built against raw cluster 0xF000, never looked up by name).
type touchlinkAdapter struct{ g *gateway }

func (t touchlinkAdapter) SetInterPANChannel(ctx context.Context, channel uint8) error {
	return t.g.adapter.SetInterPANChannel(ctx, channel)
}

func (t touchlinkAdapter) ResetInterPAN(ctx context.Context) error {
	return t.g.adapter.ResetInterPAN(ctx)
}

func (t touchlinkAdapter) SendExtendedData(ctx context.Context, groupID uint16, clusterID uint16, payload []byte) error {
	return t.g.adapter.SendExtendedData(ctx, groupID, clusterID, payload)
}

func (t touchlinkAdapter) SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID uint16, payload []byte) error {
	return t.g.adapter.SendData(ctx, addr, ep, clusterID, payload)
}

// dataRequestPayload is the gateway.Transmit payload shape for plain
// data requests.
type dataRequestPayload struct {
	endpoint  model.EndpointID
	clusterID model.ClusterID
	payload   []byte
}

// bindingRequestPayload is the gateway.Transmit payload shape for
// Binding requests.
type bindingRequestPayload struct {
	srcEndpoint model.EndpointID
	clusterID   model.ClusterID
	dst         model.IEEEAddress
	dstEndpoint model.EndpointID
}

// lqiRequestPayload carries the callback Transmit invokes with the
// neighbour list once the adapter's (synchronous, in this adapter
// contract) LQI call returns.
type lqiRequestPayload struct {
	onResult func(neighbors []adapter.Neighbor)
}
