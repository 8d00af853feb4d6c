package myjd

import (
	"sync"
)

// deviceTable owns the handles of every device currently reachable through the relay. It is only mutated by
// reconcile, which the Hub calls under its gate.
type deviceTable struct {
	devices map[string]Device
	lock    *sync.RWMutex
}

type reconcileResult struct {
	added   []Device
	removed []Device
	skipped []string
}

func newDeviceTable() *deviceTable {
	return &deviceTable{
		devices: make(map[string]Device),
		lock:    &sync.RWMutex{},
	}
}

func (t *deviceTable) getDevice(id string) (Device, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	d, found := t.devices[id]
	return d, found
}

func (t *deviceTable) getDevices() map[string]Device {
	t.lock.RLock()
	defer t.lock.RUnlock()

	devices := make(map[string]Device, len(t.devices))

	for id, d := range t.devices {
		devices[id] = d
	}

	return devices
}

func (t *deviceTable) len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.devices)
}

func (t *deviceTable) clear() []Device {
	t.lock.Lock()
	defer t.lock.Unlock()

	var removed []Device

	for id, d := range t.devices {
		removed = append(removed, d)
		delete(t.devices, id)
	}

	return removed
}

// diff returns the listed ids absent from the table, and the table ids absent from the listing.
func (t *deviceTable) diff(listed []DeviceEntry) ([]string, []string) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	seen := make(map[string]struct{}, len(listed))
	var missing []string

	for _, e := range listed {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		if _, found := t.devices[e.ID]; !found {
			missing = append(missing, e.ID)
		}
	}

	var stale []string

	for id := range t.devices {
		if _, found := seen[id]; !found {
			stale = append(stale, id)
		}
	}

	return missing, stale
}

// reconcile brings the table in line with listed. Handles for new ids are obtained from fetch, ids not listed are
// removed, retained ids keep their existing handle. If skip returns true for a fetch error the device is left out,
// any other error aborts the reconcile and leaves the table unmodified.
func (t *deviceTable) reconcile(listed []DeviceEntry, fetch func(string) (Device, error), skip func(string, error) bool) (reconcileResult, error) {
	missing, stale := t.diff(listed)

	type fetchedDevice struct {
		id     string
		device Device
	}

	var result reconcileResult
	fetched := make([]fetchedDevice, 0, len(missing))

	for _, id := range missing {
		d, err := fetch(id)
		if err != nil {
			if skip(id, err) {
				result.skipped = append(result.skipped, id)
				continue
			}

			return reconcileResult{}, err
		}

		fetched = append(fetched, fetchedDevice{id: id, device: d})
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	for _, id := range stale {
		if d, found := t.devices[id]; found {
			result.removed = append(result.removed, d)
			delete(t.devices, id)
		}
	}

	for _, f := range fetched {
		t.devices[f.id] = f.device
		result.added = append(result.added, f.device)
	}

	return result, nil
}
