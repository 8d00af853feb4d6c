package entity

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/myjd"
	"sort"
)

const (
	ServiceRestartAndUpdate = "restart_and_update"
	ServiceRunUpdateCheck   = "run_update_check"
	ServiceStartDownloads   = "start_downloads"
	ServiceStopDownloads    = "stop_downloads"
)

var services = map[string]func(myjd.Device) error{
	ServiceRestartAndUpdate: myjd.Device.RestartAndUpdate,
	ServiceRunUpdateCheck:   myjd.Device.RunUpdateCheck,
	ServiceStartDownloads:   myjd.Device.StartDownloads,
	ServiceStopDownloads:    myjd.Device.StopDownloads,
}

// Services lists the device actions accepted by CallService.
func Services() []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// CallService forwards a device action to the relay through the hub's gate.
func CallService(ctx context.Context, hub Hub, service string, deviceID string) error {
	fn, found := services[service]
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	d, err := hub.GetDevice(deviceID)
	if err != nil {
		return err
	}

	return hub.Exec(ctx, func() error {
		return fn(d)
	})
}
