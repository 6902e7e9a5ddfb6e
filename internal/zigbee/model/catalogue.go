package model

import "sync"

// Setup is the per-(manufacturerName, modelName) registration hook
// that attaches properties, reportings and actions to a freshly
// interviewed device. The implementation the daemon installs is
// profile.Setup; the catalogue only needs the function shape.
type Setup func(device *Device)

// Catalogue is the single owner of every Device. Its device map is
// guarded by mu; the Device values it hands out carry no lock of
// their own.
type Catalogue struct {
	mu      sync.Mutex
	devices map[IEEEAddress]*Device
	setup   Setup

	onPollRequest    func(ep *Endpoint)
	onStatusUpdated  func(permitJoin bool)
}

// NewCatalogue builds an empty catalogue. setup is invoked once an
// interview finishes, or on an explicit UpdateDevice call.
func NewCatalogue(setup Setup) *Catalogue {
	return &Catalogue{
		devices: make(map[IEEEAddress]*Device),
		setup:   setup,
	}
}

// OnPollRequest registers the callback fired when a Poll-capable
// property needs an unsolicited refresh.
func (c *Catalogue) OnPollRequest(f func(ep *Endpoint)) { c.onPollRequest = f }

// OnStatusUpdated registers the callback fired when the coordinator's
// permit-join flag toggles.
func (c *Catalogue) OnStatusUpdated(f func(permitJoin bool)) { c.onStatusUpdated = f }

// Get returns the device for ieee, or nil.
func (c *Catalogue) Get(ieee IEEEAddress) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices[ieee]
}

// GetOrCreate returns the existing device for ieee or allocates and
// registers a new one.
func (c *Catalogue) GetOrCreate(ieee IEEEAddress) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.devices[ieee]; ok {
		return d
	}
	d := NewDevice(ieee)
	c.devices[ieee] = d
	return d
}

// All returns every non-removed device.
func (c *Catalogue) All() []*Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Device, 0, len(c.devices))
	for _, d := range c.devices {
		if !d.Removed {
			out = append(out, d)
		}
	}
	return out
}

// LoadDevice seeds the catalogue with a device restored from
// persistence (C10). It does not run Setup - the caller does that
// once loading is complete, matching the live-join path where Setup
// only runs after interviewFinished.
func (c *Catalogue) LoadDevice(d *Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[d.IEEEAddress] = d
}

// Remove marks a device removed and drops it from the catalogue. A
// Request holding the device's IEEEAddress must re-resolve through
// Get and tolerate a nil result after this call.
func (c *Catalogue) Remove(ieee IEEEAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.devices[ieee]; ok {
		d.Removed = true
	}
	delete(c.devices, ieee)
}

// SetupDevice runs the registered Setup hook against device, attaching
// the properties/reportings/actions appropriate to its
// (manufacturerName, modelName) identity. Called after interview
// completion and on explicit update.
func (c *Catalogue) SetupDevice(device *Device) {
	if c.setup != nil {
		c.setup(device)
	}
}

// RequestPoll notifies the registered callback that ep carries a
// Poll-capable property due for refresh.
func (c *Catalogue) RequestPoll(ep *Endpoint) {
	if c.onPollRequest != nil {
		c.onPollRequest(ep)
	}
}

// NotifyPermitJoin notifies the registered callback that the
// coordinator's permit-join flag changed.
func (c *Catalogue) NotifyPermitJoin(allow bool) {
	if c.onStatusUpdated != nil {
		c.onStatusUpdated(allow)
	}
}
