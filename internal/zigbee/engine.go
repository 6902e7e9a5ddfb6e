// Package zigbee wires the C1-C9 components into the single
// cooperative event loop described by the concurrency model: one
// goroutine owns the device catalogue, adapter events are fanned out
// to per-device interview goroutines that are the sole writer of their
// device for the interview's duration, and everything else mutates
// state only from the loop goroutine itself.
package zigbee

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/adapter"
	"zigcored/internal/zigbee/dispatch"
	"zigcored/internal/zigbee/interview"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/ota"
	"zigcored/internal/zigbee/scheduler"
	"zigcored/internal/zigbee/touchlink"
	"zigcored/internal/zigbee/zclcodec"
)

const (
	// DeviceInterviewTimeout bounds how long a single device interview
	// may run before the FSM is abandoned for that rejoin cycle.
	DeviceInterviewTimeout = 60 * time.Second

	// UpdateNeighborsInterval drives the periodic LQI refresh.
	UpdateNeighborsInterval = 5 * time.Minute

	requestTickInterval = 200 * time.Millisecond
)

// Engine ties every core component together behind the adapter
// interface and the device catalogue.
type Engine struct {
	adapter   adapter.Adapter
	catalogue *model.Catalogue
	scheduler *scheduler.Scheduler
	dispatch  *dispatch.Engine
	fsm       *interview.FSM
	ota       *ota.Handler
	touchlink *touchlink.Scanner
	log       logger.Logger

	gateway *gateway

	mu           sync.Mutex
	interviewing map[model.IEEEAddress]bool

	onDeviceEvent     func(device *model.Device, kind string)
	onEndpointUpdated func(device *model.Device, ep *model.Endpoint)
}

// New builds the engine. setup is the (manufacturerName, modelName)
// property/reporting/action registration hook run after interview
// completes.
func New(a adapter.Adapter, log logger.Logger, setup model.Setup, onDeviceEvent func(device *model.Device, kind string), onEndpointUpdated func(device *model.Device, ep *model.Endpoint)) *Engine {
	e := &Engine{
		adapter:           a,
		log:               log,
		interviewing:      make(map[model.IEEEAddress]bool),
		onDeviceEvent:     onDeviceEvent,
		onEndpointUpdated: onEndpointUpdated,
	}

	e.catalogue = model.NewCatalogue(setup)
	e.gateway = newGateway(a, log)

	e.scheduler = scheduler.New(e.gateway, log, requestTickInterval, e.onRequestFinished)
	e.ota = ota.New(e.gateway, log)
	e.touchlink = touchlink.New(touchlinkAdapter{e.gateway}, log)
	e.fsm = interview.New(e.gateway, log, e.onInterviewFinished, e.onInterviewError)
	e.dispatch = dispatch.New(e.catalogue, e.gateway, otaHandlerAdapter{e.ota}, interviewerAdapter{e}, log, e.handleEndpointUpdated)

	return e
}

// Catalogue exposes the device catalogue to the outer bridge layer.
func (e *Engine) Catalogue() *model.Catalogue { return e.catalogue }

// OTA exposes the OTA handler so the downward API can configure a
// pending upgrade file.
func (e *Engine) OTA() *ota.Handler { return e.ota }

// TouchLink exposes the TouchLink scanner to the downward API.
func (e *Engine) TouchLink() *touchlink.Scanner { return e.touchlink }

// SetPermitJoin toggles the coordinator's permit-join flag.
func (e *Engine) SetPermitJoin(ctx context.Context, allow bool) error {
	if err := e.adapter.PermitJoin(ctx, allow); err != nil {
		return err
	}
	e.catalogue.NotifyPermitJoin(allow)
	return nil
}

// Run starts the network, launches the scheduler tick and the
// neighbour-refresh timer, and drains adapter events until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context, cfg adapter.NetworkConfiguration) error {
	if err := e.adapter.Initialise(ctx, cfg); err != nil {
		return fmt.Errorf("zigbee: adapter initialise failed: %w", err)
	}

	go e.scheduler.Run(ctx)
	go e.neighborLoop(ctx)

	events := e.adapter.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handleEvent(ctx, ev)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev adapter.Event) {
	switch ev.Kind {
	case adapter.EventNodeJoin:
		device := e.catalogue.GetOrCreate(ev.IEEEAddress)
		device.NetworkAddress = ev.NetworkAddress
		e.fireDeviceEvent(device, "deviceJoined")
		e.startInterview(ctx, device)

	case adapter.EventNodeLeave:
		device := e.catalogue.Get(ev.IEEEAddress)
		e.catalogue.Remove(ev.IEEEAddress)
		if device != nil {
			e.fireDeviceEvent(device, "deviceLeft")
		}

	case adapter.EventNodeUpdate:
		device := e.catalogue.GetOrCreate(ev.IEEEAddress)
		device.NetworkAddress = ev.NetworkAddress

	case adapter.EventIncomingMessage:
		device := e.catalogue.GetOrCreate(ev.IEEEAddress)
		if e.gateway.deliverIfAwaited(device.IEEEAddress, ev.ClusterID, ev.Frame) {
			return
		}
		e.dispatch.MessageReceived(ctx, device, ev.NetworkAddress, ev.EndpointID, ev.ClusterID, ev.LinkQuality, ev.Frame)

	case adapter.EventRequestFinished:
		e.scheduler.Finish(ev.RequestID, ev.RequestStatus)
	}
}

// startInterview launches one interview goroutine per device, bounded
// by DeviceInterviewTimeout, and guarded so at most one runs per
// device at a time (the device's sole writer for the duration).
func (e *Engine) startInterview(ctx context.Context, device *model.Device) {
	e.mu.Lock()
	if e.interviewing[device.IEEEAddress] {
		e.mu.Unlock()
		return
	}
	e.interviewing[device.IEEEAddress] = true
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.interviewing, device.IEEEAddress)
			e.mu.Unlock()
		}()

		interviewCtx, cancel := context.WithTimeout(ctx, DeviceInterviewTimeout)
		defer cancel()

		for {
			launched := e.fsm.Step(interviewCtx, device)
			if device.InterviewState == model.InterviewFinished {
				return
			}
			if !launched {
				return
			}
			select {
			case <-interviewCtx.Done():
				e.fireDeviceEvent(device, "interviewTimeout")
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()
}

func (e *Engine) onInterviewFinished(device *model.Device) {
	e.catalogue.SetupDevice(device)
	for _, ep := range device.Endpoints {
		for _, r := range ep.Reportings {
			e.configureReporting(device, ep, r)
		}
	}
	e.fireDeviceEvent(device, "interviewFinished")
}

// configureReporting pushes one Reporting entry to the node: a
// CMD_CONFIGURE_REPORTING frame on the reporting's own cluster, plus a
// binding that routes the resulting reports back to the coordinator's
// own endpoint 1, matching the original's configureReporting/
// enqueueBindingRequest pairing.
func (e *Engine) configureReporting(device *model.Device, ep *model.Endpoint, r model.Reporting) {
	frame := zclcodec.ConfigureReportingRequest(e.gateway.nextTID(), r.AttributeID, r.DataType, r.MinInterval, r.MaxInterval, r.ValueChange)
	req := e.scheduler.Enqueue(model.RequestData, device.IEEEAddress, dataRequestPayload{endpoint: ep.ID, clusterID: r.ClusterID, payload: frame})
	e.log.Debug("enqueued reporting %q configuration on device %016X endpoint %d as request %d", r.Name, uint64(device.IEEEAddress), ep.ID, req.ID)

	bindReq := e.scheduler.Enqueue(model.RequestBinding, device.IEEEAddress, bindingRequestPayload{
		srcEndpoint: ep.ID,
		clusterID:   r.ClusterID,
		dst:         e.gateway.IEEEAddress(),
		dstEndpoint: 1,
	})
	e.log.Debug("enqueued reporting %q binding request %d: %016X/%d -(cluster 0x%04X)-> coordinator", r.Name, bindReq.ID, uint64(device.IEEEAddress), ep.ID, uint16(r.ClusterID))
}

func (e *Engine) onInterviewError(device *model.Device, reason string) {
	e.fireDeviceEvent(device, "interviewError")
}

func (e *Engine) onRequestFinished(req *model.Request) {
	// Binding/Data/Remove requests have no further bookkeeping beyond
	// the warning scheduler.Finish already logs for a non-zero status.
}

func (e *Engine) handleEndpointUpdated(device *model.Device, ep *model.Endpoint) {
	if e.onEndpointUpdated != nil {
		e.onEndpointUpdated(device, ep)
	}
}

func (e *Engine) fireDeviceEvent(device *model.Device, kind string) {
	if e.onDeviceEvent != nil {
		e.onDeviceEvent(device, kind)
	}
}

func (e *Engine) neighborLoop(ctx context.Context) {
	ticker := time.NewTicker(UpdateNeighborsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, device := range e.catalogue.All() {
				go e.refreshNeighbors(ctx, device)
			}
		}
	}
}

// refreshNeighbors enqueues an LQI request rather than calling the
// adapter directly: LQI has no completion callback, so the scheduler
// table will carry it as Sent indefinitely once Transmit succeeds -
// a documented quirk, not a leak, since Pending/Sent ids are skipped
// by allocateID and the entry is harmless dead weight.
func (e *Engine) refreshNeighbors(ctx context.Context, device *model.Device) {
	e.scheduler.Enqueue(model.RequestLQI, device.IEEEAddress, lqiRequestPayload{
		onResult: func(neighbors []adapter.Neighbor) {
			for _, n := range neighbors {
				device.Neighbors[n.NetworkAddress] = n.LinkQuality
			}
		},
	})
}

// DeviceAction resolves the named action on device/endpoint and
// enqueues its request bytes as a Data request.
func (e *Engine) DeviceAction(ctx context.Context, ieee model.IEEEAddress, endpointID model.EndpointID, actionName string, arg interface{}) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}
	ep, ok := device.Endpoints[endpointID]
	if !ok {
		return fmt.Errorf("zigbee: device %016X has no endpoint %d", uint64(ieee), endpointID)
	}
	action := ep.ActionByName(actionName)
	if action == nil {
		return fmt.Errorf("zigbee: device %016X endpoint %d has no action %q", uint64(ieee), endpointID, actionName)
	}
	payload, err := action.Request(arg)
	if err != nil {
		return fmt.Errorf("zigbee: building action %q request: %w", actionName, err)
	}

	req := e.scheduler.Enqueue(model.RequestData, ieee, dataRequestPayload{endpoint: endpointID, clusterID: action.ClusterID, payload: payload})
	e.log.Debug("enqueued action %q on device %016X as request %d", actionName, uint64(ieee), req.ID)
	return nil
}

// GroupAction sends payload, an already-encoded ZCL frame for
// clusterID, to groupID as an extended (group-addressed) data request,
// bypassing the scheduler entirely as the source does for group casts
// - there is no single device to correlate a response against. It
// does not look up or build an Action by name; the caller supplies
// the frame.
func (e *Engine) GroupAction(ctx context.Context, groupID uint16, clusterID model.ClusterID, payload []byte) error {
	return e.adapter.SendExtendedData(ctx, groupID, uint16(clusterID), payload)
}

// BindingControl enqueues a Binding request routing clusterID reports
// from (srcIEEE, srcEndpoint) to (dstIEEE, dstEndpoint). The
// destination is resolved by its own address, never derived from the
// source.
func (e *Engine) BindingControl(ctx context.Context, srcIEEE model.IEEEAddress, srcEndpoint model.EndpointID, clusterID model.ClusterID, dstIEEE model.IEEEAddress, dstEndpoint model.EndpointID) error {
	req := e.scheduler.Enqueue(model.RequestBinding, srcIEEE, bindingRequestPayload{
		srcEndpoint: srcEndpoint,
		clusterID:   clusterID,
		dst:         dstIEEE,
		dstEndpoint: dstEndpoint,
	})
	e.log.Debug("enqueued binding request %d: %016X/%d -(cluster 0x%04X)-> %016X/%d", req.ID, uint64(srcIEEE), srcEndpoint, uint16(clusterID), uint64(dstIEEE), dstEndpoint)
	return nil
}

// RemoveDevice enqueues a Remove request, which reaches Finished when
// the adapter reports the leave through the usual RequestFinished
// event. Once the adapter has accepted the Leave call the request is
// Sent; the scheduler neither retransmits nor aborts Sent requests, so
// a leave callback that never arrives leaves the request Sent in the
// table.
func (e *Engine) RemoveDevice(ctx context.Context, ieee model.IEEEAddress, force bool) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}
	req := e.scheduler.Enqueue(model.RequestRemove, ieee, nil)
	e.log.Debug("enqueued remove request %d for device %016X (force=%v)", req.ID, uint64(ieee), force)
	if force {
		e.catalogue.Remove(ieee)
		e.fireDeviceEvent(device, "deviceLeft")
	}
	return nil
}

// UpdateDevice re-runs setup against device's current endpoint/cluster
// state - picking up any property/action/reporting table changes -
// and, when reportings is true, re-pushes every configured reporting
// to the node.
func (e *Engine) UpdateDevice(ctx context.Context, ieee model.IEEEAddress, reportings bool) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}

	e.catalogue.SetupDevice(device)
	if !reportings {
		e.log.Info("device %016X configuration updated without reportings", uint64(ieee))
		return nil
	}

	for _, ep := range device.Endpoints {
		for _, r := range ep.Reportings {
			e.configureReporting(device, ep, r)
		}
	}
	e.log.Info("device %016X configuration updated", uint64(ieee))
	return nil
}

// UpdateReporting edits the min/max interval or reportable-change
// threshold of every reporting on device matching endpointID (0 for
// any) and reportingName (empty for any), then re-pushes each match to
// the node. A zero interval/threshold argument leaves that field
// unchanged.
func (e *Engine) UpdateReporting(ctx context.Context, ieee model.IEEEAddress, endpointID model.EndpointID, reportingName string, minInterval, maxInterval uint16, valueChange uint32) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}

	for _, ep := range device.Endpoints {
		if endpointID != 0 && ep.ID != endpointID {
			continue
		}
		for i := range ep.Reportings {
			r := &ep.Reportings[i]
			if reportingName != "" && r.Name != reportingName {
				continue
			}
			if minInterval != 0 {
				r.MinInterval = minInterval
			}
			if maxInterval != 0 {
				r.MaxInterval = maxInterval
			}
			if valueChange != 0 {
				r.ValueChange = valueChange
			}
			e.configureReporting(device, ep, *r)
		}
	}
	return nil
}

// SetDeviceName assigns a friendly display name to device. Persistence
// follows the usual device-event path: the caller's onDeviceEvent
// handler sees "deviceRenamed" and saves the record the same way it
// saves any other catalogue mutation.
func (e *Engine) SetDeviceName(ctx context.Context, ieee model.IEEEAddress, name string) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}
	device.Name = name
	e.fireDeviceEvent(device, "deviceRenamed")
	return nil
}

// GroupControl adds or removes device/endpointID (0 targets endpoint
// 1) from groupID via the Groups cluster's AddGroup (0x00) / RemoveGroup
// (0x03) commands. AddGroup carries a trailing empty group-name string;
// RemoveGroup does not.
func (e *Engine) GroupControl(ctx context.Context, ieee model.IEEEAddress, endpointID model.EndpointID, groupID uint16, remove bool) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}
	if endpointID == 0 {
		endpointID = 1
	}

	cmd := byte(0x00)
	if remove {
		cmd = 0x03
	}
	frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, e.gateway.nextTID(), cmd, 0)
	frame = append(frame, zclcodec.PutLittleEndianUint16(groupID)...)
	if !remove {
		frame = append(frame, 0x00)
	}

	req := e.scheduler.Enqueue(model.RequestData, ieee, dataRequestPayload{endpoint: endpointID, clusterID: model.ClusterGroups, payload: frame})
	e.log.Debug("enqueued group control request %d for device %016X: group 0x%04X remove=%v", req.ID, uint64(ieee), groupID, remove)
	return nil
}

// RemoveAllGroups issues the Groups cluster's RemoveAllGroups (0x04)
// command against device/endpointID (0 targets endpoint 1).
func (e *Engine) RemoveAllGroups(ctx context.Context, ieee model.IEEEAddress, endpointID model.EndpointID) error {
	device := e.catalogue.Get(ieee)
	if device == nil {
		return fmt.Errorf("zigbee: unknown device %016X", uint64(ieee))
	}
	if endpointID == 0 {
		endpointID = 1
	}

	frame := zclcodec.ZCLHeader(zclcodec.FCClusterSpecific, e.gateway.nextTID(), 0x04, 0)
	req := e.scheduler.Enqueue(model.RequestData, ieee, dataRequestPayload{endpoint: endpointID, clusterID: model.ClusterGroups, payload: frame})
	e.log.Debug("enqueued remove-all-groups request %d for device %016X", req.ID, uint64(ieee))
	return nil
}

// ReadAttributes performs a synchronous attribute read against a
// live device/endpoint/cluster, for the downward "get" API: it is the
// one place above C9 that needs a request/response round trip outside
// the interview FSM, so it reaches the same gateway the FSM uses
// rather than duplicating the correlation logic.
func (e *Engine) ReadAttributes(ctx context.Context, ieee model.IEEEAddress, endpointID model.EndpointID, clusterID model.ClusterID, attrIDs []uint16) (map[uint16]interview.Attribute, error) {
	return e.gateway.ReadAttributes(ctx, ieee, endpointID, clusterID, attrIDs)
}

type otaHandlerAdapter struct{ h *ota.Handler }

func (o otaHandlerAdapter) HandleCommand(ctx context.Context, device *model.Device, ep model.EndpointID, tid byte, cmdID byte, payload []byte) error {
	return o.h.HandleCommand(ctx, device, ep, tid, cmdID, payload)
}

type interviewerAdapter struct{ e *Engine }

func (i interviewerAdapter) NotifyIASWriteSucceeded(device *model.Device, ep *model.Endpoint) {
	// The interview goroutine re-checks ep.ZoneStatus on its own
	// cadence (startInterview's step loop); nothing to do here beyond
	// having already flipped the status in dispatch.
}

func (i interviewerAdapter) NotifyInterviewTick(device *model.Device) {}
