package myjd

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

type tableDevice struct {
	Device
	id string
}

func (d *tableDevice) ID() string {
	return d.id
}

func (d *tableDevice) Name() string {
	return d.id
}

func fetchTableDevice(id string) (Device, error) {
	return &tableDevice{id: id}, nil
}

func neverSkip(string, error) bool {
	return false
}

func TestDeviceTable_reconcile(t *testing.T) {
	t.Run("populates an empty table from the listing", func(t *testing.T) {
		dt := newDeviceTable()

		result, err := dt.reconcile([]DeviceEntry{{ID: "A"}, {ID: "B"}}, fetchTableDevice, neverSkip)
		assert.NoError(t, err)
		assert.Len(t, result.added, 2)
		assert.Empty(t, result.removed)
		assert.Equal(t, 2, dt.len())
	})

	t.Run("duplicate listing entries are fetched once", func(t *testing.T) {
		dt := newDeviceTable()
		fetches := 0

		_, err := dt.reconcile([]DeviceEntry{{ID: "A"}, {ID: "A"}}, func(id string) (Device, error) {
			fetches++
			return fetchTableDevice(id)
		}, neverSkip)

		assert.NoError(t, err)
		assert.Equal(t, 1, fetches)
		assert.Equal(t, 1, dt.len())
	})

	t.Run("removes stale ids and retains existing handles", func(t *testing.T) {
		dt := newDeviceTable()

		_, err := dt.reconcile([]DeviceEntry{{ID: "A"}, {ID: "B"}}, fetchTableDevice, neverSkip)
		assert.NoError(t, err)

		originalB, _ := dt.getDevice("B")

		result, err := dt.reconcile([]DeviceEntry{{ID: "B"}, {ID: "C"}}, fetchTableDevice, neverSkip)
		assert.NoError(t, err)

		assert.Len(t, result.added, 1)
		assert.Equal(t, "C", result.added[0].ID())
		assert.Len(t, result.removed, 1)
		assert.Equal(t, "A", result.removed[0].ID())

		retainedB, found := dt.getDevice("B")
		assert.True(t, found)
		assert.Same(t, originalB, retainedB)

		_, found = dt.getDevice("A")
		assert.False(t, found)
	})

	t.Run("skipped fetch failures are recorded and do not abort", func(t *testing.T) {
		dt := newDeviceTable()

		result, err := dt.reconcile([]DeviceEntry{{ID: "A"}, {ID: "B"}}, func(id string) (Device, error) {
			if id == "A" {
				return nil, ErrDeviceNotFound
			}
			return fetchTableDevice(id)
		}, func(_ string, err error) bool {
			return errors.Is(err, ErrDeviceNotFound)
		})

		assert.NoError(t, err)
		assert.Equal(t, []string{"A"}, result.skipped)
		assert.Equal(t, 1, dt.len())
	})

	t.Run("unskipped fetch failures leave the table unmodified", func(t *testing.T) {
		dt := newDeviceTable()

		_, err := dt.reconcile([]DeviceEntry{{ID: "A"}}, fetchTableDevice, neverSkip)
		assert.NoError(t, err)

		expectedErr := errors.New("failure")

		_, err = dt.reconcile([]DeviceEntry{{ID: "B"}}, func(string) (Device, error) {
			return nil, expectedErr
		}, neverSkip)

		assert.ErrorIs(t, err, expectedErr)

		_, found := dt.getDevice("A")
		assert.True(t, found)
		assert.Equal(t, 1, dt.len())
	})
}

func TestDeviceTable_clear(t *testing.T) {
	t.Run("removes and returns every device", func(t *testing.T) {
		dt := newDeviceTable()

		_, _ = dt.reconcile([]DeviceEntry{{ID: "A"}, {ID: "B"}}, fetchTableDevice, neverSkip)

		removed := dt.clear()
		assert.Len(t, removed, 2)
		assert.Equal(t, 0, dt.len())
		assert.Empty(t, dt.getDevices())
	})
}
