package entity

import (
	"context"
	"github.com/shimmeringbee/myjd"
	"math"
	"sort"
	"strings"
)

const (
	OnlineDevices = "online"
	DownloadSpeed = "download_speed"
	Packages      = "packages"
	Links         = "links"
	Status        = "status"
)

const (
	AttrPackages       = "packages"
	AttrLinks          = "links"
	AttrJDownloaders   = "jdownloaders"
	AttrJDownloaderIDs = "jdownloader_ids"
)

type sensor struct {
	*base
}

// NewOnlineDevices creates the device-less sensor which refreshes the hub's online device set on every poll.
func NewOnlineDevices(deps Dependencies) Entity {
	s := &sensor{base: newBase(deps, description{
		key:            OnlineDevices,
		name:           "JDownloaders Online",
		icon:           "mdi:download-multiple",
		measurement:    "number",
		kind:           KindSensor,
		enabledDefault: true,
	}, nil)}

	s.poll = func(ctx context.Context) error {
		devices, err := deps.Hub.UpdateDevices(ctx)
		if err != nil {
			return err
		}

		sorted := make([]myjd.Device, 0, len(devices))
		for _, d := range devices {
			sorted = append(sorted, d)
		}

		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Name() < sorted[j].Name()
		})

		names := make([]string, 0, len(sorted))
		ids := make([]string, 0, len(sorted))

		for _, d := range sorted {
			names = append(names, d.Name())
			ids = append(ids, d.ID())
		}

		s.set(len(devices), map[string]any{
			AttrJDownloaders:   names,
			AttrJDownloaderIDs: ids,
		})

		return nil
	}

	return s
}

func NewDownloadSpeed(deps Dependencies, d myjd.Device) Entity {
	s := &sensor{base: newBase(deps, description{
		key:            DownloadSpeed,
		name:           "JDownloader %s Download Speed",
		icon:           "mdi:download",
		measurement:    DownloadSpeed,
		kind:           KindSensor,
		unit:           "MB/s",
		stateClass:     "measurement",
		enabledDefault: true,
	}, d)}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		speed, err := myjd.Query(ctx, deps.Hub, d.SpeedInBytes)
		if err != nil {
			return err
		}

		s.set(bytesToMegabytes(speed), nil)
		return nil
	}

	return s
}

func bytesToMegabytes(b int64) float64 {
	return math.Round(float64(b)/1_000_000*100) / 100
}

func NewPackages(deps Dependencies, d myjd.Device) Entity {
	s := &sensor{base: newBase(deps, description{
		key:         Packages,
		name:        "JDownloader %s Packages",
		icon:        "mdi:package-down",
		measurement: Packages,
		kind:        KindSensor,
	}, d)}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		packages, err := myjd.Query(ctx, deps.Hub, d.QueryPackages)
		if err != nil {
			return err
		}

		s.set(len(packages), map[string]any{AttrPackages: packages})
		return nil
	}

	return s
}

func NewLinks(deps Dependencies, d myjd.Device) Entity {
	s := &sensor{base: newBase(deps, description{
		key:         Links,
		name:        "JDownloader %s Links",
		icon:        "mdi:link-box",
		measurement: Links,
		kind:        KindSensor,
	}, d)}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		links, err := myjd.Query(ctx, deps.Hub, d.QueryLinks)
		if err != nil {
			return err
		}

		s.set(len(links), map[string]any{AttrLinks: links})
		return nil
	}

	return s
}

var statusIcons = map[string]string{
	"idle":    "mdi:stop",
	"running": "mdi:play",
	"paused":  "mdi:pause",
	"stopped": "mdi:stop",
}

func NewStatus(deps Dependencies, d myjd.Device) Entity {
	s := &sensor{base: newBase(deps, description{
		key:            Status,
		name:           "JDownloader %s Status",
		icon:           "mdi:play-pause",
		measurement:    Status,
		kind:           KindSensor,
		enabledDefault: true,
	}, d)}

	s.iconFor = func(v any) string {
		if state, ok := v.(string); ok {
			if icon, found := statusIcons[state]; found {
				return icon
			}
		}

		return s.desc.icon
	}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		state, err := myjd.Query(ctx, deps.Hub, d.CurrentState)
		if err != nil {
			return err
		}

		s.set(normalizeState(state), nil)
		return nil
	}

	return s
}

// normalizeState maps relay run states onto display states, e.g. STOPPED_STATE to stopped and PAUSE to paused.
func normalizeState(state string) string {
	state = strings.ToLower(state)
	state = strings.ReplaceAll(state, "_state", "")

	if state == "pause" {
		return "paused"
	}

	return state
}
