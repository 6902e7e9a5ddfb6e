// Package model holds the Device/Endpoint/Property/Reporting/Action/
// Request entities and their ownership invariants. The catalogue in
// this package is the only thing in the core with write access to a
// Device; everything else resolves devices through it.
package model

import "time"

// IEEEAddress is the stable 8-byte node address.
type IEEEAddress uint64

// NetworkAddress is the 16-bit address that may change on rejoin.
type NetworkAddress uint16

// EndpointID is the 1-byte endpoint sub-address within a node.
type EndpointID uint8

// ClusterID is the 16-bit cluster namespace id.
type ClusterID uint16

// Well-known cluster ids referenced directly by the core.
const (
	ClusterBasic       ClusterID = 0x0000
	ClusterGroups      ClusterID = 0x0004
	ClusterOTAUpgrade  ClusterID = 0x0019
	ClusterTime        ClusterID = 0x000A
	ClusterIASZone     ClusterID = 0x0500
	ClusterTouchLink   ClusterID = 0x1000
	ClusterTuya        ClusterID = 0xEF00
	ClusterElectricalM ClusterID = 0x0B04
	ClusterMetering    ClusterID = 0x0702
)

// LogicalType is the ZigBee node role.
type LogicalType int

const (
	LogicalTypeCoordinator LogicalType = iota
	LogicalTypeRouter
	LogicalTypeEndDevice
)

// InterviewState tracks how far the interview FSM has progressed.
type InterviewState int

const (
	InterviewNotStarted InterviewState = iota
	InterviewDescriptorReceived
	InterviewEndpointsReceived
	InterviewFinished
)

// ZoneStatus is the per-endpoint IAS Zone enrollment state.
type ZoneStatus int

const (
	ZoneStatusUnknown ZoneStatus = iota
	ZoneStatusSetAddress
	ZoneStatusEnroll
	ZoneStatusEnrolled
)

// Property is a polymorphic attribute/command consumer that maintains
// one semantic value. Concrete variants live in the property package;
// this package only knows the contract.
//
// ParseAttribute and ParseCommand report whether they claimed the
// frame. A false return is not an error: the value is simply
// unchanged, per the fail-soft parsing policy.
type Property interface {
	Name() string
	ClusterID() ClusterID
	ParseAttribute(device *Device, attrID uint16, dataType byte, payload []byte) bool
	ParseCommand(device *Device, cmdID byte, payload []byte) bool
	Value() interface{}
}

// Reporting describes an attribute-report configuration to push to a
// node.
type Reporting struct {
	Name        string
	ClusterID   ClusterID
	DataType    byte
	AttributeID uint16
	MinInterval uint16
	MaxInterval uint16
	ValueChange uint32
}

// Action produces outgoing command bytes for a named device verb.
type Action struct {
	Name             string
	ClusterID        ClusterID
	AttributeID      uint16
	ManufacturerCode uint16
	Poll             bool
	Request          func(arg interface{}) ([]byte, error)
}

// Endpoint is identified by (Device, EndpointID).
type Endpoint struct {
	ID                 EndpointID
	ProfileID          uint16
	DeviceID           uint16
	InClusterList      []ClusterID
	OutClusterList     []ClusterID
	ZoneStatus         ZoneStatus
	DescriptorReceived bool
	Updated            bool

	Properties []Property
	Reportings []Reporting
	Actions    []Action
}

// HasInCluster reports whether the endpoint's server-side cluster list
// advertises clusterID.
func (e *Endpoint) HasInCluster(clusterID ClusterID) bool {
	for _, c := range e.InClusterList {
		if c == clusterID {
			return true
		}
	}
	return false
}

// PropertyByCluster returns the first property registered against
// clusterID, or nil.
func (e *Endpoint) PropertyByCluster(clusterID ClusterID) Property {
	for _, p := range e.Properties {
		if p.ClusterID() == clusterID {
			return p
		}
	}
	return nil
}

// ActionByName returns the endpoint's action with the given name, or
// nil.
func (e *Endpoint) ActionByName(name string) *Action {
	for i := range e.Actions {
		if e.Actions[i].Name == name {
			return &e.Actions[i]
		}
	}
	return nil
}

// Device is the top-level catalogue entry, keyed by IEEEAddress.
type Device struct {
	IEEEAddress      IEEEAddress
	NetworkAddress   NetworkAddress
	LogicalType      LogicalType
	Name             string
	ManufacturerName string
	ModelName        string
	FirmwareVersion  uint32
	PowerSource      uint8
	ManufacturerCode uint16

	InterviewState InterviewState

	Endpoints map[EndpointID]*Endpoint
	Neighbors map[NetworkAddress]uint8 // networkAddress -> link quality

	LastSeen time.Time
	Removed  bool
}

// NewDevice allocates a Device with its map fields initialised.
func NewDevice(ieee IEEEAddress) *Device {
	return &Device{
		IEEEAddress: ieee,
		Endpoints:   make(map[EndpointID]*Endpoint),
		Neighbors:   make(map[NetworkAddress]uint8),
	}
}

// Endpoint returns the endpoint with the given id, creating it if it
// does not yet exist.
func (d *Device) Endpoint(id EndpointID) *Endpoint {
	if ep, ok := d.Endpoints[id]; ok {
		return ep
	}
	ep := &Endpoint{ID: id}
	d.Endpoints[id] = ep
	return ep
}

// EndpointMissingSimpleDescriptor returns the first endpoint that has
// not yet received its simple descriptor, and true, or (nil, false)
// if every known endpoint has one.
func (d *Device) EndpointMissingSimpleDescriptor() (*Endpoint, bool) {
	for _, ep := range d.Endpoints {
		if !ep.DescriptorReceived {
			return ep, true
		}
	}
	return nil, false
}

// BasicClusterEndpoint returns the first endpoint advertising the
// Basic cluster, used by the interview FSM to read manufacturer/model
// attributes.
func (d *Device) BasicClusterEndpoint() (*Endpoint, bool) {
	for _, ep := range d.Endpoints {
		if ep.HasInCluster(ClusterBasic) {
			return ep, true
		}
	}
	return nil, false
}

// IASZoneEndpoints returns every endpoint advertising the IAS Zone
// cluster.
func (d *Device) IASZoneEndpoints() []*Endpoint {
	var out []*Endpoint
	for _, ep := range d.Endpoints {
		if ep.HasInCluster(ClusterIASZone) {
			out = append(out, ep)
		}
	}
	return out
}

// AllIASZonesEnrolled reports whether every IAS Zone endpoint has
// reached ZoneStatusEnrolled.
func (d *Device) AllIASZonesEnrolled() bool {
	for _, ep := range d.IASZoneEndpoints() {
		if ep.ZoneStatus != ZoneStatusEnrolled {
			return false
		}
	}
	return true
}
