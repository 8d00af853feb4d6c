package mocks

import (
	"github.com/shimmeringbee/myjd"
	"github.com/stretchr/testify/mock"
)

// MockDevice is a testify mock of a device handle, identity fields are plain values as they never touch the relay.
type MockDevice struct {
	mock.Mock
	DeviceID   string
	DeviceName string
	DeviceType string
}

func NewMockDevice(id string, name string) *MockDevice {
	return &MockDevice{DeviceID: id, DeviceName: name, DeviceType: "jd"}
}

func (m *MockDevice) ID() string {
	return m.DeviceID
}

func (m *MockDevice) Name() string {
	return m.DeviceName
}

func (m *MockDevice) Type() string {
	return m.DeviceType
}

func (m *MockDevice) SpeedInBytes() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDevice) CurrentState() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockDevice) QueryPackages() ([]myjd.Package, error) {
	args := m.Called()
	return args.Get(0).([]myjd.Package), args.Error(1)
}

func (m *MockDevice) QueryLinks() ([]myjd.Link, error) {
	args := m.Called()
	return args.Get(0).([]myjd.Link), args.Error(1)
}

func (m *MockDevice) StartDownloads() error {
	return m.Called().Error(0)
}

func (m *MockDevice) StopDownloads() error {
	return m.Called().Error(0)
}

func (m *MockDevice) PauseDownloads(pause bool) error {
	return m.Called(pause).Error(0)
}

func (m *MockDevice) SpeedLimitEnabled() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockDevice) EnableSpeedLimit() error {
	return m.Called().Error(0)
}

func (m *MockDevice) DisableSpeedLimit() error {
	return m.Called().Error(0)
}

func (m *MockDevice) IsUpdateAvailable() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockDevice) RunUpdateCheck() error {
	return m.Called().Error(0)
}

func (m *MockDevice) RestartAndUpdate() error {
	return m.Called().Error(0)
}

func (m *MockDevice) CoreRevision() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

var _ myjd.Device = (*MockDevice)(nil)
