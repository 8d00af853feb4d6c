package entity

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/myjd"
	"strings"
	"sync"
	"time"
)

const Domain = "myjdownloader"

const (
	Manufacturer = "AppWork GmbH"
	Title        = "MyJDownloader"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrNotSupported   = errors.New("operation not supported by entity")
)

type Kind string

const (
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
	KindSwitch       Kind = "switch"
	KindUpdate       Kind = "update"
)

type Category string

const (
	CategoryNone       Category = ""
	CategoryDiagnostic Category = "diagnostic"
)

// Hub is the part of myjd.Hub that entities poll through.
type Hub interface {
	myjd.Executor
	GetDevice(string) (myjd.Device, error)
	UpdateDevices(context.Context) (map[string]myjd.Device, error)
}

type Dependencies struct {
	Hub    Hub
	Logger logwrap.Logger

	Versions              VersionSource
	ScanInterval          time.Duration
	LatestVersionInterval time.Duration
	Now                   func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}

	return d.Now()
}

type DeviceInfo struct {
	Identifiers  [][2]string `json:"identifiers"`
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer"`
	Model        string      `json:"model"`
	EntryType    string      `json:"entry_type"`
}

type State struct {
	Value       any            `json:"value"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Available   bool           `json:"available"`
	Icon        string         `json:"icon,omitempty"`
	Unit        string         `json:"unit_of_measurement,omitempty"`
	StateClass  string         `json:"state_class,omitempty"`
	DeviceClass string         `json:"device_class,omitempty"`
}

type Entity interface {
	UniqueID() string
	Name() string
	Key() string
	Kind() Kind
	Category() Category
	DeviceID() string
	DeviceInfo() *DeviceInfo
	EnabledByDefault() bool
	Available() bool
	State() State
	// Update polls the relay and refreshes the state. A failure marks the entity unavailable until the next
	// successful Update.
	Update(context.Context) error
}

type Switch interface {
	Entity
	TurnOn(context.Context) error
	TurnOff(context.Context) error
}

type Installable interface {
	Entity
	Install(context.Context) error
}

type description struct {
	key            string
	name           string
	icon           string
	measurement    string
	kind           Kind
	category       Category
	unit           string
	stateClass     string
	deviceClass    string
	enabledDefault bool
}

type base struct {
	deps Dependencies
	desc description

	name       string
	deviceID   string
	deviceInfo *DeviceInfo
	iconFor    func(any) string

	m          *sync.RWMutex
	available  bool
	value      any
	attributes map[string]any

	poll func(context.Context) error
}

func newBase(deps Dependencies, desc description, d myjd.Device) *base {
	b := &base{
		deps:      deps,
		desc:      desc,
		name:      desc.name,
		m:         &sync.RWMutex{},
		available: true,
	}

	if d != nil {
		b.name = fmt.Sprintf(desc.name, d.Name())
		b.deviceID = d.ID()
		b.deviceInfo = &DeviceInfo{
			Identifiers:  [][2]string{{Domain, d.ID()}},
			Name:         fmt.Sprintf("JDownloader %s", d.Name()),
			Manufacturer: Manufacturer,
			Model:        d.Type(),
			EntryType:    "service",
		}
	}

	return b
}

func (b *base) UniqueID() string {
	parts := []string{Domain, b.name, string(b.desc.kind)}

	if len(b.desc.measurement) > 0 {
		parts = append(parts, b.desc.measurement)
	}

	return strings.Join(parts, "_")
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Key() string {
	return b.desc.key
}

func (b *base) Kind() Kind {
	return b.desc.kind
}

func (b *base) Category() Category {
	return b.desc.category
}

func (b *base) DeviceID() string {
	return b.deviceID
}

func (b *base) DeviceInfo() *DeviceInfo {
	return b.deviceInfo
}

func (b *base) EnabledByDefault() bool {
	return b.desc.enabledDefault
}

func (b *base) Available() bool {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.available
}

func (b *base) State() State {
	b.m.RLock()
	defer b.m.RUnlock()

	icon := b.desc.icon
	if b.iconFor != nil {
		icon = b.iconFor(b.value)
	}

	var attributes map[string]any
	if b.attributes != nil {
		attributes = make(map[string]any, len(b.attributes))
		for k, v := range b.attributes {
			attributes[k] = v
		}
	}

	return State{
		Value:       b.value,
		Attributes:  attributes,
		Available:   b.available,
		Icon:        icon,
		Unit:        b.desc.unit,
		StateClass:  b.desc.stateClass,
		DeviceClass: b.desc.deviceClass,
	}
}

func (b *base) Update(ctx context.Context) error {
	err := b.poll(ctx)

	if err != nil {
		b.markUnavailable(ctx, "An error occurred while updating MyJDownloader entity.", err)
		return err
	}

	b.m.Lock()
	b.available = true
	b.m.Unlock()

	return nil
}

// markUnavailable only logs on the transition from available, repeated failures are silent.
func (b *base) markUnavailable(ctx context.Context, msg string, err error) {
	b.m.Lock()
	wasAvailable := b.available
	b.available = false
	b.m.Unlock()

	if wasAvailable {
		b.deps.Logger.LogDebug(ctx, msg, logwrap.Datum("UniqueID", b.UniqueID()), logwrap.Err(err))
	}
}

func (b *base) set(value any, attributes map[string]any) {
	b.m.Lock()
	defer b.m.Unlock()

	b.value = value
	b.attributes = attributes
}

func (b *base) device() (myjd.Device, error) {
	return b.deps.Hub.GetDevice(b.deviceID)
}
