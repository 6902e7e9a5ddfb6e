// Package znp implements adapter.Adapter (C9) against a CC253x/CC26x2
// coordinator speaking the ZNP protocol, via shimmeringbee/zstack over
// a serial port. It is the one place in the module that imports
// shimmeringbee/zigbee and shimmeringbee/zstack directly; an EZSP
// backend would live alongside it under adapter/ezsp without any
// change above the adapter package (see DESIGN.md).
package znp

import (
	"context"
	"fmt"
	"time"

	serial "go.bug.st/serial.v1"

	zigbeelib "github.com/shimmeringbee/zigbee"
	"github.com/shimmeringbee/zstack"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/adapter"
	"zigcored/internal/zigbee/model"
)

// coordinatorEndpoint is the single adapter-owned application endpoint
// registered against the stack, matching the teacher's single-endpoint
// coordinator registration.
const coordinatorEndpoint = zigbeelib.Endpoint(0x01)

// Config is the serial connection the adapter opens.
type Config struct {
	PortName string
	BaudRate uint32
}

// Adapter is the znp-backed adapter.Adapter implementation.
type Adapter struct {
	log   logger.Logger
	port  serial.Port
	stack *zstack.ZStack
	ieee  model.IEEEAddress

	events chan adapter.Event
	done   chan struct{}
}

// New opens the serial port, seeds the stack's node table from devices
// already known to the catalogue/persistence layer, and constructs the
// ZStack instance. Initialise must still be called (by the engine's
// Run) before the network is usable.
func New(cfg Config, devices []*model.Device, log logger.Logger) (*Adapter, error) {
	mode := &serial.Mode{BaudRate: int(cfg.BaudRate)}
	port, err := serial.Open(cfg.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("znp: opening serial port %s: %w", cfg.PortName, err)
	}
	port.SetRTS(true)

	table := zstack.NewNodeTable()
	nodes := make([]zigbeelib.Node, 0, len(devices))
	for _, d := range devices {
		nodes = append(nodes, zigbeelib.Node{
			IEEEAddress:    zigbeelib.IEEEAddress(d.IEEEAddress),
			NetworkAddress: zigbeelib.NetworkAddress(d.NetworkAddress),
			LogicalType:    zigbeelib.LogicalType(d.LogicalType),
		})
	}
	table.Load(nodes)

	a := &Adapter{
		log:    log,
		port:   port,
		stack:  zstack.New(port, table),
		events: make(chan adapter.Event, 64),
		done:   make(chan struct{}),
	}
	return a, nil
}

// Initialise brings the radio up on cfg and registers the coordinator
// application endpoint, then starts the event-translation loop.
func (a *Adapter) Initialise(ctx context.Context, cfg adapter.NetworkConfiguration) error {
	netCfg := zigbeelib.NetworkConfiguration{
		PANID:         zigbeelib.PANID(cfg.PANID),
		ExtendedPANID: zigbeelib.ExtendedPANID(cfg.ExtendedPANID),
		NetworkKey:    cfg.NetworkKey,
		Channel:       cfg.Channel,
	}
	if err := a.stack.Initialise(ctx, netCfg); err != nil {
		return fmt.Errorf("znp: initialise: %w", err)
	}
	a.ieee = model.IEEEAddress(cfg.CoordinatorIEEEAddress)

	if err := a.stack.RegisterAdapterEndpoint(
		ctx,
		coordinatorEndpoint,
		zigbeelib.ProfileHomeAutomation,
		1,
		1,
		[]zigbeelib.ClusterID{},
		[]zigbeelib.ClusterID{},
	); err != nil {
		return fmt.Errorf("znp: register adapter endpoint: %w", err)
	}

	go a.eventLoop()
	return nil
}

func (a *Adapter) PermitJoin(ctx context.Context, allow bool) error {
	if allow {
		return a.stack.PermitJoin(ctx, true)
	}
	return a.stack.DenyJoin(ctx)
}

func (a *Adapter) NodeDescriptor(ctx context.Context, addr model.IEEEAddress) (adapter.NodeDescriptor, error) {
	d, err := a.stack.QueryNodeDescription(ctx, zigbeelib.IEEEAddress(addr))
	if err != nil {
		return adapter.NodeDescriptor{}, err
	}
	return adapter.NodeDescriptor{
		LogicalType:      model.LogicalType(d.LogicalType),
		ManufacturerCode: uint16(d.ManufacturerCode),
	}, nil
}

func (a *Adapter) ActiveEndpoints(ctx context.Context, addr model.IEEEAddress) ([]model.EndpointID, error) {
	eps, err := a.stack.QueryNodeEndpoints(ctx, zigbeelib.IEEEAddress(addr))
	if err != nil {
		return nil, err
	}
	out := make([]model.EndpointID, len(eps))
	for i, ep := range eps {
		out[i] = model.EndpointID(ep)
	}
	return out, nil
}

func (a *Adapter) SimpleDescriptor(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID) (adapter.SimpleDescriptor, error) {
	d, err := a.stack.QueryNodeEndpointDescription(ctx, zigbeelib.IEEEAddress(addr), zigbeelib.Endpoint(ep))
	if err != nil {
		return adapter.SimpleDescriptor{}, err
	}

	in := make([]model.ClusterID, len(d.InClusterList))
	for i, c := range d.InClusterList {
		in[i] = model.ClusterID(c)
	}
	out := make([]model.ClusterID, len(d.OutClusterList))
	for i, c := range d.OutClusterList {
		out[i] = model.ClusterID(c)
	}

	return adapter.SimpleDescriptor{
		ProfileID:      uint16(d.ProfileID),
		DeviceID:       d.DeviceID,
		InClusterList:  in,
		OutClusterList: out,
	}, nil
}

// SendData wraps payload (a complete C1-encoded ZCL frame) in a
// zigbee.ApplicationMessage and hands it to the stack unacknowledged,
// matching the teacher's SendApplicationMessageToNode(ctx, ieee,
// appMsg, false) call.
func (a *Adapter) SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID uint16, payload []byte) error {
	appMsg := zigbeelib.ApplicationMessage{
		ClusterID:           zigbeelib.ClusterID(clusterID),
		SourceEndpoint:      coordinatorEndpoint,
		DestinationEndpoint: zigbeelib.Endpoint(ep),
		Data:                payload,
	}
	return a.stack.SendApplicationMessageToNode(ctx, zigbeelib.IEEEAddress(addr), appMsg, false)
}

// SendExtendedData is the TouchLink/Inter-PAN send path. The retrieved
// zstack call surface has no group- or Inter-PAN-addressed send beside
// SendApplicationMessageToNode; CC253x Inter-PAN framing is a radio-
// level capability this wrapper does not expose, so this is a
// documented gap rather than a guessed call (see DESIGN.md).
func (a *Adapter) SendExtendedData(ctx context.Context, groupID uint16, clusterID uint16, payload []byte) error {
	return fmt.Errorf("znp: extended (group/Inter-PAN) send is not supported by this adapter backend")
}

// Bind issues a ZDO bind request routing clusterID reports from
// (src, srcEP) to (dst, dstEP).
func (a *Adapter) Bind(ctx context.Context, src model.IEEEAddress, srcEP model.EndpointID, clusterID uint16, dst model.IEEEAddress, dstEP model.EndpointID) error {
	return a.stack.BindNode(
		ctx,
		zigbeelib.IEEEAddress(src),
		zigbeelib.Endpoint(srcEP),
		zigbeelib.ClusterID(clusterID),
		zigbeelib.IEEEAddress(dst),
		zigbeelib.Endpoint(dstEP),
	)
}

// Leave issues a ZDO leave request, removing addr from the network.
func (a *Adapter) Leave(ctx context.Context, addr model.IEEEAddress) error {
	return a.stack.RequestNodeLeave(ctx, zigbeelib.IEEEAddress(addr))
}

// LQI would answer a Mgmt_Lqi_req neighbour table query. Nothing in
// the retrieved zstack call surface demonstrates one, and guessing at
// an unverified method name here is worse than an honest gap; this
// adapter reports it unsupported rather than fabricate a call (see
// DESIGN.md).
func (a *Adapter) LQI(ctx context.Context, addr model.IEEEAddress) ([]adapter.Neighbor, error) {
	return nil, fmt.Errorf("znp: neighbour table query is not supported by this adapter backend")
}

// SetInterPANChannel and ResetInterPAN back TouchLink's channel hop.
// Like SendExtendedData, Inter-PAN framing sits below what the
// retrieved zstack call surface demonstrates.
func (a *Adapter) SetInterPANChannel(ctx context.Context, channel uint8) error {
	return fmt.Errorf("znp: Inter-PAN channel control is not supported by this adapter backend")
}

func (a *Adapter) ResetInterPAN(ctx context.Context) error {
	return fmt.Errorf("znp: Inter-PAN channel control is not supported by this adapter backend")
}

func (a *Adapter) IEEEAddress() model.IEEEAddress { return a.ieee }

func (a *Adapter) Events() <-chan adapter.Event { return a.events }

func (a *Adapter) Stop() {
	close(a.done)
	a.stack.Stop()
	a.port.Close()
}

// eventLoop translates zstack's ReadEvent stream into adapter.Event,
// the narrow event vocabulary the core depends on.
func (a *Adapter) eventLoop() {
	ctx := context.Background()
	for {
		select {
		case <-a.done:
			close(a.events)
			return
		default:
		}

		event, err := a.stack.ReadEvent(ctx)
		if err != nil {
			a.log.Warn("znp: read event: %v", err)
			time.Sleep(time.Second)
			continue
		}

		switch e := event.(type) {
		case zigbeelib.NodeJoinEvent:
			a.emit(adapter.Event{
				Kind:           adapter.EventNodeJoin,
				IEEEAddress:    model.IEEEAddress(e.Node.IEEEAddress),
				NetworkAddress: model.NetworkAddress(e.Node.NetworkAddress),
			})

		case zigbeelib.NodeLeaveEvent:
			a.emit(adapter.Event{
				Kind:        adapter.EventNodeLeave,
				IEEEAddress: model.IEEEAddress(e.Node.IEEEAddress),
			})

		case zigbeelib.NodeUpdateEvent:
			a.emit(adapter.Event{
				Kind:           adapter.EventNodeUpdate,
				IEEEAddress:    model.IEEEAddress(e.Node.IEEEAddress),
				NetworkAddress: model.NetworkAddress(e.Node.NetworkAddress),
			})

		case zigbeelib.NodeIncomingMessageEvent:
			msg := e.IncomingMessage
			a.emit(adapter.Event{
				Kind:           adapter.EventIncomingMessage,
				IEEEAddress:    model.IEEEAddress(msg.SourceAddress.IEEEAddress),
				NetworkAddress: model.NetworkAddress(msg.SourceAddress.NetworkAddress),
				EndpointID:     model.EndpointID(msg.ApplicationMessage.SourceEndpoint),
				ClusterID:      model.ClusterID(msg.ApplicationMessage.ClusterID),
				LinkQuality:    msg.LinkQuality,
				Frame:          msg.ApplicationMessage.Data,
			})
		}
	}
}

func (a *Adapter) emit(ev adapter.Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}
