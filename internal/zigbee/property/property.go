// Package property implements the C2 property parsers: the per-
// cluster and per-vendor translation from ZCL attributes/commands into
// typed semantic values. Every variant implements model.Property.
package property

import "zigcored/internal/zigbee/model"

// base carries the fields every variant needs and satisfies the parts
// of model.Property that do not vary per variant.
type base struct {
	name      string
	clusterID model.ClusterID
	options   map[string]interface{}
	value     interface{}
}

func (b *base) Name() string             { return b.name }
func (b *base) ClusterID() model.ClusterID { return b.clusterID }
func (b *base) Value() interface{}       { return b.value }

func (b *base) optBool(key string) bool {
	if b.options == nil {
		return false
	}
	v, _ := b.options[key].(bool)
	return v
}

func (b *base) optString(key string, def string) string {
	if b.options == nil {
		return def
	}
	if v, ok := b.options[key].(string); ok {
		return v
	}
	return def
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// percentage maps value linearly from [min,max] onto [0,100], clipped
// at both ends. Mirrors PropertyObject::percentage in the source.
func percentage(min, max, value float64) int {
	if max <= min {
		return 0
	}
	pct := (value - min) / (max - min) * 100
	return int(clamp(pct, 0, 100))
}
