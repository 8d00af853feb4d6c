package entity

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/myjd"
	"strings"
)

const (
	Pause = "pause"
	Limit = "limit"
)

type switchEntity struct {
	*base
	on  func(myjd.Device) error
	off func(myjd.Device) error
}

func (s *switchEntity) TurnOn(ctx context.Context) error {
	return s.command(ctx, s.on, "An error occurred while turning on MyJDownloader switch.")
}

func (s *switchEntity) TurnOff(ctx context.Context) error {
	return s.command(ctx, s.off, "An error occurred while turning off MyJDownloader switch.")
}

func (s *switchEntity) command(ctx context.Context, fn func(myjd.Device) error, msg string) error {
	d, err := s.device()
	if err != nil {
		return err
	}

	if err := s.deps.Hub.Exec(ctx, func() error { return fn(d) }); err != nil {
		s.deps.Logger.LogError(ctx, msg, logwrap.Datum("UniqueID", s.UniqueID()), logwrap.Err(err))

		s.m.Lock()
		s.available = false
		s.m.Unlock()

		return err
	}

	return nil
}

func NewPause(deps Dependencies, d myjd.Device) Switch {
	s := &switchEntity{
		base: newBase(deps, description{
			key:            Pause,
			name:           "JDownloader %s Pause",
			icon:           "mdi:play-pause",
			measurement:    Pause,
			kind:           KindSwitch,
			enabledDefault: true,
		}, d),
		on: func(d myjd.Device) error {
			return d.PauseDownloads(true)
		},
		off: func(d myjd.Device) error {
			return d.PauseDownloads(false)
		},
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

		s.set(strings.ToLower(state) == "pause", nil)
		return nil
	}

	return s
}

func NewLimit(deps Dependencies, d myjd.Device) Switch {
	s := &switchEntity{
		base: newBase(deps, description{
			key:            Limit,
			name:           "JDownloader %s Limit",
			icon:           "mdi:download-lock",
			measurement:    Limit,
			kind:           KindSwitch,
			enabledDefault: true,
		}, d),
		on:  myjd.Device.EnableSpeedLimit,
		off: myjd.Device.DisableSpeedLimit,
	}

	s.poll = func(ctx context.Context) error {
		d, err := s.device()
		if err != nil {
			return err
		}

		enabled, err := myjd.Query(ctx, deps.Hub, d.SpeedLimitEnabled)
		if err != nil {
			return err
		}

		s.set(enabled, nil)
		return nil
	}

	return s
}
