package myjd

import "errors"

// AppKey identifies this integration to the MyJDownloader relay.
const AppKey = "https://git.io/JO0Dh"

// ErrDeviceNotFound must be returned (or wrapped) by a Client when a listed device can not be reached by the relay.
var ErrDeviceNotFound = errors.New("device not found")

// Client is a blocking MyJDownloader relay session. Implementations are not required to be safe for concurrent use,
// the Hub guarantees only one call is in flight at any time.
type Client interface {
	SetAppKey(string)
	Connect(email string, password string) error
	Reconnect() error
	IsConnected() bool
	UpdateDevices() error
	ListDevices() ([]DeviceEntry, error)
	GetDevice(id string) (Device, error)
}

// DeviceEntry is a single device as reported by the relay device listing.
type DeviceEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Device is a handle to a single remote JDownloader instance. Handles are only valid while the device remains in the
// Hub's online set, all calls must be made through Hub.Exec or Query.
type Device interface {
	ID() string
	Name() string
	Type() string

	SpeedInBytes() (int64, error)
	CurrentState() (string, error)
	QueryPackages() ([]Package, error)
	QueryLinks() ([]Link, error)

	StartDownloads() error
	StopDownloads() error
	PauseDownloads(bool) error

	SpeedLimitEnabled() (bool, error)
	EnableSpeedLimit() error
	DisableSpeedLimit() error

	IsUpdateAvailable() (bool, error)
	RunUpdateCheck() error
	RestartAndUpdate() error
	CoreRevision() (string, error)
}

type Package struct {
	UUID        int64    `json:"uuid"`
	Name        string   `json:"name"`
	SaveTo      string   `json:"saveTo,omitempty"`
	Hosts       []string `json:"hosts,omitempty"`
	ChildCount  int      `json:"childCount"`
	BytesLoaded int64    `json:"bytesLoaded"`
	BytesTotal  int64    `json:"bytesTotal"`
	Speed       int64    `json:"speed"`
	ETA         int64    `json:"eta"`
	Status      string   `json:"status,omitempty"`
	Enabled     bool     `json:"enabled"`
	Running     bool     `json:"running"`
	Finished    bool     `json:"finished"`
}

type Link struct {
	UUID        int64  `json:"uuid"`
	PackageUUID int64  `json:"packageUUID"`
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Host        string `json:"host,omitempty"`
	BytesLoaded int64  `json:"bytesLoaded"`
	BytesTotal  int64  `json:"bytesTotal"`
	Speed       int64  `json:"speed"`
	Status      string `json:"status,omitempty"`
	Enabled     bool   `json:"enabled"`
	Running     bool   `json:"running"`
	Finished    bool   `json:"finished"`
}
