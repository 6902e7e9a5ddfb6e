package model

// RequestKind enumerates the adapter operations the scheduler
// serialises.
type RequestKind int

const (
	RequestBinding RequestKind = iota
	RequestData
	RequestRemove
	RequestLQI
	RequestInterview
)

// RequestStatus is the lifecycle state of a Request.
type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestSent
	RequestFinished
	RequestAborted
)

// Request is a scheduled adapter operation. It references its Device
// by IEEEAddress, not by pointer: the device may be removed from the
// catalogue while the request is in flight, and the scheduler must
// re-resolve through the catalogue on every step rather than hold a
// stale pointer.
type Request struct {
	ID      byte
	Kind    RequestKind
	Device  IEEEAddress
	Status  RequestStatus
	Payload interface{}
}
