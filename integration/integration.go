package integration

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/myjd"
	"github.com/shimmeringbee/myjd/config"
	"github.com/shimmeringbee/myjd/entity"
	"github.com/shimmeringbee/myjd/rules"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/impl/memory"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotReady      = errors.New("integration not ready")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrUnknownDevice = errors.New("unknown device")
	ErrDeviceOnline  = errors.New("device is online")
)

type Option func(*Integration)

func WithSection(s persistence.Section) Option {
	return func(i *Integration) {
		i.registry.section = s
	}
}

func WithLogWrapLogger(lw logwrap.Logger) Option {
	return func(i *Integration) {
		i.logger = lw
	}
}

func WithVersionSource(vs entity.VersionSource) Option {
	return func(i *Integration) {
		i.versions = vs
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Integration) {
		i.now = now
	}
}

const scanIntervalSetting = "scan_interval"

type registration struct {
	entity         entity.Entity
	enabledDefault bool
}

// Integration ties a hub to its entities: it creates entities for devices as they come online, polls them, and
// exposes their commands and the device actions.
type Integration struct {
	cfg      *config.Config
	hub      *myjd.Hub
	registry *registry
	rules    *rules.Engine
	versions entity.VersionSource
	poller   *poller
	logger   logwrap.Logger
	now      func() time.Time

	lock             *sync.RWMutex
	entities         map[string]*registration
	devicesPlatforms map[string]map[string]bool
}

func New(client myjd.Client, cfg *config.Config, opts ...Option) (*Integration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	i := &Integration{
		cfg:              cfg,
		hub:              myjd.New(client),
		registry:         &registry{section: memory.New()},
		logger:           logwrap.New(discard.Discard()),
		now:              time.Now,
		lock:             &sync.RWMutex{},
		entities:         map[string]*registration{},
		devicesPlatforms: map[string]map[string]bool{},
	}

	i.versions = entity.NewHTTPVersionSource(cfg.LatestVersion.URL)
	i.poller = newPoller(i.pollable)

	for _, opt := range opts {
		opt(i)
	}

	i.hub.WithLogWrapLogger(i.logger)
	i.hub.Listen(i.deviceAdded)
	i.hub.Listen(i.deviceRemoved)

	engine, err := loadRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	i.rules = engine

	return i, nil
}

func loadRules(extra string) (*rules.Engine, error) {
	e := rules.New()

	if err := e.LoadFS(rules.Embedded); err != nil {
		return nil, fmt.Errorf("failed to load default rules: %w", err)
	}

	if len(extra) > 0 {
		f, err := os.Open(extra)
		if err != nil {
			return nil, fmt.Errorf("failed to open rules %s: %w", extra, err)
		}
		defer f.Close()

		if err := e.LoadReader(f); err != nil {
			return nil, fmt.Errorf("failed to load rules %s: %w", extra, err)
		}
	}

	if err := e.CompileRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return e, nil
}

func (i *Integration) Hub() *myjd.Hub {
	return i.hub
}

func (i *Integration) dependencies() entity.Dependencies {
	return entity.Dependencies{
		Hub:                   i.hub,
		Logger:                i.logger,
		Versions:              i.versions,
		ScanInterval:          i.cfg.ScanInterval,
		LatestVersionInterval: i.cfg.LatestVersion.Interval,
		Now:                   i.now,
	}
}

// Setup authenticates, performs the first device refresh and starts polling. Any failure to reach the relay is
// reported as ErrNotReady wrapping the cause.
func (i *Integration) Setup(ctx context.Context) error {
	ctx, end := i.logger.Segment(ctx, "Setting up MyJDownloader integration.")
	defer end()

	connected, err := i.hub.Authenticate(ctx, i.cfg.Email, i.cfg.Password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	if !connected {
		return fmt.Errorf("%w: relay session not connected", ErrNotReady)
	}

	i.poller.Start()

	if _, err := i.hub.UpdateDevices(ctx); err != nil {
		i.poller.Stop()
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	online := entity.NewOnlineDevices(i.dependencies())
	i.register(online, true)
	i.poller.Add(online.UniqueID(), i.cfg.ScanInterval, i.update)

	i.logger.LogInfo(ctx, "MyJDownloader integration ready.", logwrap.Datum("Devices", len(i.hub.Devices())))
	return nil
}

// Unload stops polling, tears down the relay session and forgets all entities.
func (i *Integration) Unload(ctx context.Context) error {
	i.poller.Stop()

	err := i.hub.Close(ctx)

	i.lock.Lock()
	i.entities = map[string]*registration{}
	i.devicesPlatforms = map[string]map[string]bool{}
	i.lock.Unlock()

	return err
}

// deviceAdded runs inside the hub's refresh, it must only register and schedule.
func (i *Integration) deviceAdded(ctx context.Context, e myjd.DeviceAdded) error {
	d := e.Device
	i.registry.recordDevice(d, i.now())

	out, err := i.rules.Execute(rules.Input{Device: rules.InputDevice{ID: d.ID(), Name: d.Name(), Type: d.Type()}})
	if err != nil {
		i.logger.LogError(ctx, "Failed to execute rules for device.", logwrap.Datum("DeviceID", d.ID()), logwrap.Err(err))
		return err
	}

	keys := make([]string, 0, len(out.Entities))
	for k := range out.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !i.claimPlatform(d.ID(), key) {
			continue
		}

		ent, err := entity.Create(key, i.dependencies(), d)
		if err != nil {
			i.logger.LogWarn(ctx, "Rules requested unknown entity.", logwrap.Datum("DeviceID", d.ID()), logwrap.Datum("Key", key), logwrap.Err(err))
			continue
		}

		settings := out.Entities[key]

		i.register(ent, settings.Enabled())
		i.poller.AddNow(ent.UniqueID(), i.pollInterval(settings), i.update)

		i.logger.LogInfo(ctx, "Added MyJDownloader entity.", logwrap.Datum("UniqueID", ent.UniqueID()), logwrap.Datum("DeviceID", d.ID()))
	}

	return nil
}

func (i *Integration) deviceRemoved(ctx context.Context, e myjd.DeviceRemoved) error {
	i.logger.LogInfo(ctx, "MyJDownloader device went offline, its entities will become unavailable.", logwrap.Datum("DeviceID", e.Device.ID()))
	return nil
}

// pollInterval returns the rule's "scan_interval" in seconds when set, otherwise the configured scan interval.
func (i *Integration) pollInterval(settings rules.Settings) time.Duration {
	if seconds, ok := settings.Int(scanIntervalSetting); ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return i.cfg.ScanInterval
}

// claimPlatform records that an entity of key exists for the device, returning false if one already did.
func (i *Integration) claimPlatform(deviceID string, key string) bool {
	i.lock.Lock()
	defer i.lock.Unlock()

	platforms, found := i.devicesPlatforms[deviceID]
	if !found {
		platforms = map[string]bool{}
		i.devicesPlatforms[deviceID] = platforms
	}

	if platforms[key] {
		return false
	}

	platforms[key] = true
	return true
}

func (i *Integration) register(e entity.Entity, enabledDefault bool) {
	i.lock.Lock()
	defer i.lock.Unlock()

	i.entities[e.UniqueID()] = &registration{entity: e, enabledDefault: enabledDefault}
}

func (i *Integration) lookup(uniqueID string) (*registration, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()

	r, found := i.entities[uniqueID]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, uniqueID)
	}

	return r, nil
}

// pollable reports whether a poll job should still exist, returning the entity for any registered id.
func (i *Integration) pollable(uniqueID string) (entity.Entity, bool) {
	r, err := i.lookup(uniqueID)
	if err != nil {
		return nil, false
	}

	return r.entity, true
}

// update is the poll job for every entity. Disabled entities are skipped but stay scheduled so that enabling
// them resumes polling.
func (i *Integration) update(ctx context.Context, e entity.Entity) bool {
	if !i.Enabled(e.UniqueID()) {
		return true
	}

	// Failures are logged by the entity when it turns unavailable.
	_ = e.Update(ctx)
	return true
}

func (i *Integration) Enabled(uniqueID string) bool {
	r, err := i.lookup(uniqueID)
	if err != nil {
		return false
	}

	return i.registry.enabled(uniqueID, r.enabledDefault)
}

func (i *Integration) SetEnabled(uniqueID string, enabled bool) error {
	if _, err := i.lookup(uniqueID); err != nil {
		return err
	}

	i.registry.setEnabled(uniqueID, enabled)
	return nil
}

func (i *Integration) Entity(uniqueID string) (entity.Entity, error) {
	r, err := i.lookup(uniqueID)
	if err != nil {
		return nil, err
	}

	return r.entity, nil
}

// Entities returns every registered entity ordered by unique id.
func (i *Integration) Entities() []entity.Entity {
	i.lock.RLock()
	defer i.lock.RUnlock()

	out := make([]entity.Entity, 0, len(i.entities))
	for _, r := range i.entities {
		out = append(out, r.entity)
	}

	sort.Slice(out, func(a, b int) bool {
		return out[a].UniqueID() < out[b].UniqueID()
	})

	return out
}

// Devices returns every device ever seen, flagged with whether it is currently online.
func (i *Integration) Devices() []KnownDevice {
	online := i.hub.Devices()
	known := i.registry.devices()

	for n := range known {
		_, known[n].Online = online[known[n].ID]
	}

	return known
}

// ForgetDevice removes an offline device's metadata and entities.
func (i *Integration) ForgetDevice(deviceID string) error {
	if _, err := i.hub.GetDevice(deviceID); err == nil {
		return fmt.Errorf("%w: %s cannot be forgotten", ErrDeviceOnline, deviceID)
	}

	if !i.registry.removeDevice(deviceID) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}

	i.lock.Lock()
	defer i.lock.Unlock()

	for id, r := range i.entities {
		if r.entity.DeviceID() == deviceID {
			delete(i.entities, id)
		}
	}
	delete(i.devicesPlatforms, deviceID)

	return nil
}

func (i *Integration) CallService(ctx context.Context, service string, deviceID string) error {
	return entity.CallService(ctx, i.hub, service, deviceID)
}

func (i *Integration) TurnOn(ctx context.Context, uniqueID string) error {
	s, err := i.switchFor(uniqueID)
	if err != nil {
		return err
	}

	return s.TurnOn(ctx)
}

func (i *Integration) TurnOff(ctx context.Context, uniqueID string) error {
	s, err := i.switchFor(uniqueID)
	if err != nil {
		return err
	}

	return s.TurnOff(ctx)
}

func (i *Integration) switchFor(uniqueID string) (entity.Switch, error) {
	e, err := i.Entity(uniqueID)
	if err != nil {
		return nil, err
	}

	s, ok := e.(entity.Switch)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a switch", entity.ErrNotSupported, uniqueID)
	}

	return s, nil
}

func (i *Integration) Install(ctx context.Context, uniqueID string) error {
	e, err := i.Entity(uniqueID)
	if err != nil {
		return err
	}

	u, ok := e.(entity.Installable)
	if !ok {
		return fmt.Errorf("%w: %s is not installable", entity.ErrNotSupported, uniqueID)
	}

	return u.Install(ctx)
}
