// Package adapter defines the narrow contract the core depends on for
// every radio operation (C9). Nothing above this package imports a
// concrete radio library directly; that happens only inside an
// adapter implementation such as adapter/znp.
package adapter

import (
	"context"

	"zigcored/internal/zigbee/model"
)

// NetworkConfiguration is the network the adapter is asked to form.
type NetworkConfiguration struct {
	PANID         uint16
	ExtendedPANID uint64
	NetworkKey    [16]byte
	Channel       uint8

	// CoordinatorIEEEAddress identifies the coordinator itself. The
	// znp backend has no call surface to read this back off the radio
	// in the retrieved examples, so it is configured rather than
	// queried.
	CoordinatorIEEEAddress uint64
}

// NodeDescriptor is the adapter's answer to a node descriptor request.
type NodeDescriptor struct {
	LogicalType      model.LogicalType
	ManufacturerCode uint16
}

// SimpleDescriptor is the adapter's answer to a simple descriptor
// request for one endpoint.
type SimpleDescriptor struct {
	ProfileID      uint16
	DeviceID       uint16
	InClusterList  []model.ClusterID
	OutClusterList []model.ClusterID
}

// Neighbor is one entry of an LQI response.
type Neighbor struct {
	NetworkAddress model.NetworkAddress
	LinkQuality    uint8
}

// EventKind enumerates the closed set of notifications the adapter can
// raise asynchronously.
type EventKind int

const (
	EventNodeJoin EventKind = iota
	EventNodeLeave
	EventNodeUpdate
	EventIncomingMessage
	EventRequestFinished
)

// Event is the adapter's event-stream payload; only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	IEEEAddress    model.IEEEAddress
	NetworkAddress model.NetworkAddress

	// EventIncomingMessage
	EndpointID  model.EndpointID
	ClusterID   model.ClusterID
	LinkQuality uint8
	Frame       []byte

	// EventRequestFinished
	RequestID     byte
	RequestStatus byte
}

// Adapter is the full contract the core's engine depends on. A ZNP-
// backed implementation lives in adapter/znp; an EZSP implementation
// is a documented gap (see DESIGN.md) that would satisfy the same
// interface without any change above this package.
type Adapter interface {
	Initialise(ctx context.Context, cfg NetworkConfiguration) error
	PermitJoin(ctx context.Context, allow bool) error

	NodeDescriptor(ctx context.Context, addr model.IEEEAddress) (NodeDescriptor, error)
	ActiveEndpoints(ctx context.Context, addr model.IEEEAddress) ([]model.EndpointID, error)
	SimpleDescriptor(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID) (SimpleDescriptor, error)

	SendData(ctx context.Context, addr model.IEEEAddress, ep model.EndpointID, clusterID uint16, payload []byte) error
	SendExtendedData(ctx context.Context, groupID uint16, clusterID uint16, payload []byte) error

	Bind(ctx context.Context, src model.IEEEAddress, srcEP model.EndpointID, clusterID uint16, dst model.IEEEAddress, dstEP model.EndpointID) error
	Leave(ctx context.Context, addr model.IEEEAddress) error
	LQI(ctx context.Context, addr model.IEEEAddress) ([]Neighbor, error)

	SetInterPANChannel(ctx context.Context, channel uint8) error
	ResetInterPAN(ctx context.Context) error

	IEEEAddress() model.IEEEAddress
	Events() <-chan Event
	Stop()
}
