package myjd

import (
	"context"
	"errors"
	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"golang.org/x/sync/semaphore"
)

// Executor runs blocking relay calls one at a time.
type Executor interface {
	Exec(context.Context, func() error) error
}

// Hub owns a single relay session. Every call to the Client, or to a Device obtained from it, is serialized through
// a gate of weight one, as relay sessions are not safe for concurrent use.
type Hub struct {
	client    Client
	gate      *semaphore.Weighted
	table     *deviceTable
	callbacks callbacks.AdderCaller
	logger    logwrap.Logger
}

func New(client Client) *Hub {
	client.SetAppKey(AppKey)

	return &Hub{
		client:    client,
		gate:      semaphore.NewWeighted(1),
		table:     newDeviceTable(),
		callbacks: callbacks.Create(),
		logger:    logwrap.New(discard.Discard()),
	}
}

// Listen registers a callback for DeviceAdded or DeviceRemoved events. Callbacks are invoked while the gate is still
// held by the refresh which raised them, they must not call Exec, Query, Authenticate or UpdateDevices synchronously.
func (h *Hub) Listen(f any) {
	h.callbacks.Add(f)
}

// Exec acquires the gate and runs fn on a worker goroutine. The gate is released when fn returns, not when the
// caller stops waiting: cancelling ctx abandons the wait but the call still runs to completion. Errors from fn are
// returned unchanged.
func (h *Hub) Exec(ctx context.Context, fn func() error) error {
	if err := h.gate.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)

	go func() {
		defer h.gate.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn through e.Exec and returns its value.
func Query[T any](ctx context.Context, e Executor, fn func() (T, error)) (T, error) {
	var result T

	err := e.Exec(ctx, func() error {
		v, err := fn()
		if err == nil {
			result = v
		}
		return err
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// Authenticate connects the session to the relay, returning the connection state afterwards.
func (h *Hub) Authenticate(ctx context.Context, email string, password string) (bool, error) {
	return Query(ctx, h, func() (bool, error) {
		if err := h.client.Connect(email, password); err != nil {
			h.logger.LogError(ctx, "Failed to connect to MyJDownloader.", logwrap.Err(err))
			return false, &AuthenticationError{Err: err}
		}

		return h.client.IsConnected(), nil
	})
}

// Connected returns the connection state of the session.
func (h *Hub) Connected(ctx context.Context) (bool, error) {
	return Query(ctx, h, func() (bool, error) {
		return h.client.IsConnected(), nil
	})
}

// UpdateDevices reconnects, refreshes the relay device list and reconciles the online device set against it. The
// returned map is a copy of the set after the refresh, not the set itself, so callers may range over it while later
// refreshes run. Handles of devices which remain online are the same values on every call.
func (h *Hub) UpdateDevices(ctx context.Context) (map[string]Device, error) {
	ctx, end := h.logger.Segment(ctx, "Updating online devices.")
	defer end()

	err := h.Exec(ctx, func() error {
		if err := h.client.Reconnect(); err != nil {
			h.logger.LogError(ctx, "Failed to reconnect to MyJDownloader.", logwrap.Err(err))
			return &RelayCallError{Op: "reconnect", Err: err}
		}

		if err := h.client.UpdateDevices(); err != nil {
			h.logger.LogError(ctx, "Failed to query available JDownloaders.", logwrap.Err(err))
			return &RelayCallError{Op: "update_devices", Err: err}
		}

		listed, err := h.client.ListDevices()
		if err != nil {
			h.logger.LogError(ctx, "Failed to list available JDownloaders.", logwrap.Err(err))
			return &RelayCallError{Op: "list_devices", Err: err}
		}

		result, err := h.table.reconcile(listed, h.client.GetDevice, func(id string, err error) bool {
			if errors.Is(err, ErrDeviceNotFound) {
				h.logger.LogWarn(ctx, "Failed to check JDownloader, skipping.", logwrap.Datum("DeviceID", id), logwrap.Err(err))
				return true
			}

			h.logger.LogError(ctx, "Failed to query JDownloader.", logwrap.Datum("DeviceID", id), logwrap.Err(err))
			return false
		})
		if err != nil {
			return &RelayCallError{Op: "get_device", Err: err}
		}

		h.announce(ctx, result)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return h.table.getDevices(), nil
}

func (h *Hub) announce(ctx context.Context, result reconcileResult) {
	for _, d := range result.removed {
		h.logger.LogInfo(ctx, "JDownloader went offline.", logwrap.Datum("DeviceID", d.ID()), logwrap.Datum("DeviceName", d.Name()))
		h.call(ctx, DeviceRemoved{Device: d})
	}

	for _, d := range result.added {
		h.logger.LogInfo(ctx, "JDownloader came online.", logwrap.Datum("DeviceID", d.ID()), logwrap.Datum("DeviceName", d.Name()))
		h.call(ctx, DeviceAdded{Device: d})
	}
}

func (h *Hub) call(ctx context.Context, event any) {
	if err := h.callbacks.Call(ctx, event); err != nil {
		h.logger.LogWarn(ctx, "Device event callback failed.", logwrap.Err(err))
	}
}

// GetDevice returns the handle of an online device. It does not refresh the online set.
func (h *Hub) GetDevice(id string) (Device, error) {
	if d, found := h.table.getDevice(id); found {
		return d, nil
	}

	return nil, &DeviceOfflineError{DeviceID: id}
}

// Devices returns a snapshot of the online device set.
func (h *Hub) Devices() map[string]Device {
	return h.table.getDevices()
}

// Close waits for any in-flight call and then drops every device handle, which are invalid once the session is gone.
func (h *Hub) Close(ctx context.Context) error {
	if err := h.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.gate.Release(1)

	removed := h.table.clear()
	h.logger.LogInfo(ctx, "Closed MyJDownloader session.", logwrap.Datum("DroppedDevices", len(removed)))

	return nil
}

var _ Executor = (*Hub)(nil)
