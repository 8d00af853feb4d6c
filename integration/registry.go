package integration

import (
	"github.com/shimmeringbee/myjd"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/converter"
	"sort"
	"time"
)

const (
	deviceSection = "device"
	entitySection = "entity"

	nameKey     = "name"
	typeKey     = "type"
	lastSeenKey = "last_seen"
	enabledKey  = "enabled"
)

// KnownDevice is a device the integration has seen online at least once.
type KnownDevice struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online"`
}

// registry keeps device metadata and user entity preferences across restarts.
type registry struct {
	section persistence.Section
}

func (r *registry) sectionForDevice(id string) persistence.Section {
	return r.section.Section(deviceSection, id)
}

func (r *registry) sectionForEntity(uniqueID string) persistence.Section {
	return r.section.Section(entitySection, uniqueID)
}

func (r *registry) recordDevice(d myjd.Device, seen time.Time) {
	s := r.sectionForDevice(d.ID())

	s.Set(nameKey, d.Name())
	s.Set(typeKey, d.Type())
	converter.Store(s, lastSeenKey, seen, converter.TimeEncoder)
}

func (r *registry) removeDevice(id string) bool {
	return r.section.Section(deviceSection).SectionDelete(id)
}

func (r *registry) devices() []KnownDevice {
	var known []KnownDevice

	for _, id := range r.section.Section(deviceSection).SectionKeys() {
		s := r.sectionForDevice(id)

		kd := KnownDevice{ID: id}
		kd.Name, _ = s.String(nameKey)
		kd.Type, _ = s.String(typeKey)
		kd.LastSeen, _ = converter.Retrieve(s, lastSeenKey, converter.TimeDecoder)

		known = append(known, kd)
	}

	sort.Slice(known, func(i, j int) bool {
		return known[i].ID < known[j].ID
	})

	return known
}

// enabled returns the stored preference for an entity, or def if the user never set one.
func (r *registry) enabled(uniqueID string, def bool) bool {
	if v, found := r.sectionForEntity(uniqueID).Bool(enabledKey); found {
		return v
	}

	return def
}

func (r *registry) setEnabled(uniqueID string, enabled bool) {
	r.sectionForEntity(uniqueID).Set(enabledKey, enabled)
}
