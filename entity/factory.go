package entity

import (
	"fmt"
	"github.com/shimmeringbee/myjd"
)

type constructor func(Dependencies, myjd.Device) Entity

var constructors = map[string]constructor{
	DownloadSpeed:   NewDownloadSpeed,
	Packages:        NewPackages,
	Links:           NewLinks,
	Status:          NewStatus,
	UpdateAvailable: NewUpdateAvailable,
	Pause: func(deps Dependencies, d myjd.Device) Entity {
		return NewPause(deps, d)
	},
	Limit: func(deps Dependencies, d myjd.Device) Entity {
		return NewLimit(deps, d)
	},
	Update: func(deps Dependencies, d myjd.Device) Entity {
		return NewUpdate(deps, d)
	},
}

// Create builds the device entity named by key, as used in rule actions.
func Create(key string, deps Dependencies, d myjd.Device) (Entity, error) {
	c, found := constructors[key]
	if !found {
		return nil, fmt.Errorf("%w: unknown entity key %q", ErrNotSupported, key)
	}

	return c(deps, d), nil
}

// Keys lists every entity key Create accepts.
func Keys() []string {
	keys := make([]string, 0, len(constructors))
	for k := range constructors {
		keys = append(keys, k)
	}

	return keys
}
