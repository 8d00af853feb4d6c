package entity

import (
	"context"
	"github.com/shimmeringbee/myjd"
)

const UpdateAvailable = "update_available"

func NewUpdateAvailable(deps Dependencies, d myjd.Device) Entity {
	s := &sensor{base: newBase(deps, description{
		key:            UpdateAvailable,
		name:           "JDownloader %s Update Available",
		measurement:    UpdateAvailable,
		kind:           KindBinarySensor,
		category:       CategoryDiagnostic,
		deviceClass:    "update",
		enabledDefault: true,
	}, d)}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		available, err := myjd.Query(ctx, deps.Hub, d.IsUpdateAvailable)
		if err != nil {
			return err
		}

		s.set(available, nil)
		return nil
	}

	return s
}
