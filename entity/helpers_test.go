package entity

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/myjd"
	"github.com/shimmeringbee/myjd/mocks"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// onlineHub returns a real hub whose online set holds the supplied mock devices.
func onlineHub(t *testing.T, devices ...*mocks.MockDevice) (*myjd.Hub, *mocks.MockClient) {
	mc := &mocks.MockClient{}
	mc.On("SetAppKey", myjd.AppKey)
	t.Cleanup(func() { mc.AssertExpectations(t) })

	h := myjd.New(mc)

	var entries []myjd.DeviceEntry
	for _, d := range devices {
		entries = append(entries, myjd.DeviceEntry{ID: d.DeviceID, Name: d.DeviceName, Type: d.DeviceType})
		mc.On("GetDevice", d.DeviceID).Return(d, nil).Once()
	}

	mc.On("Reconnect").Return(nil).Once()
	mc.On("UpdateDevices").Return(nil).Once()
	mc.On("ListDevices").Return(entries, nil).Once()

	_, err := h.UpdateDevices(context.Background())
	require.NoError(t, err)

	return h, mc
}

func testDependencies(h Hub) Dependencies {
	return Dependencies{
		Hub:                   h,
		Logger:                logwrap.New(discard.Discard()),
		ScanInterval:          time.Minute,
		LatestVersionInterval: 24 * time.Hour,
	}
}
