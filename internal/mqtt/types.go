package mqtt

// DeviceStateMessage is the upward attribute-report/state publish: one
// flat map of property name to its current semantic value, the same
// shape a property's Value() already produces.
type DeviceStateMessage struct {
	ClusterID  uint16
	Properties map[string]interface{}
}

// DeviceSetMessage is the "set" request's wire shape: Commands maps an
// action name to its argument, decoded directly off the endpoint's
// registered actions.
type DeviceSetMessage struct {
	Endpoint uint8
	Commands map[string]interface{}
}

// DeviceGetMessage is the "get" request's wire shape: a raw attribute
// read against one cluster.
type DeviceGetMessage struct {
	ClusterID  uint16
	Endpoint   uint8
	Attributes []uint16
}

// DeviceMessage is the envelope every per-device topic publish uses.
type DeviceMessage struct {
	IEEEAddress uint64
	LinkQuality uint8
	Message     interface{}
}

// DeviceDescriptionMessage answers an "explore" request.
type DeviceDescriptionMessage struct {
	IEEEAddress      uint64
	LogicalType      uint8
	ManufacturerName string
	ModelName        string
	ManufacturerCode uint16
	Endpoints        []EndpointDescription
}

type EndpointDescription struct {
	Endpoint       uint8
	ProfileID      uint16
	DeviceID       uint16
	InClusterList  []uint16
	OutClusterList []uint16
	Properties     []string
	Actions        []string
}

// SetGatewayConfig is the "gateway/config/set" wire shape.
type SetGatewayConfig struct {
	PermitJoin bool
}

// DeviceSummary is one row of the "gateway/devices" publish.
type DeviceSummary struct {
	IEEEAddress       uint64
	NetworkAddress    uint16
	ManufacturerName  string
	ModelName         string
	InterviewFinished bool
}
