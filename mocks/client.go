package mocks

import (
	"github.com/shimmeringbee/myjd"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SetAppKey(k string) {
	m.Called(k)
}

func (m *MockClient) Connect(email string, password string) error {
	return m.Called(email, password).Error(0)
}

func (m *MockClient) Reconnect() error {
	return m.Called().Error(0)
}

func (m *MockClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockClient) UpdateDevices() error {
	return m.Called().Error(0)
}

func (m *MockClient) ListDevices() ([]myjd.DeviceEntry, error) {
	args := m.Called()
	return args.Get(0).([]myjd.DeviceEntry), args.Error(1)
}

func (m *MockClient) GetDevice(id string) (myjd.Device, error) {
	args := m.Called(id)

	if d, ok := args.Get(0).(myjd.Device); ok {
		return d, args.Error(1)
	}

	return nil, args.Error(1)
}

var _ myjd.Client = (*MockClient)(nil)
