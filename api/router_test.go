package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/myjd"
	"github.com/shimmeringbee/myjd/entity"
	"github.com/shimmeringbee/myjd/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockIntegration struct {
	mock.Mock
}

func (m *mockIntegration) Entities() []entity.Entity {
	return m.Called().Get(0).([]entity.Entity)
}

func (m *mockIntegration) Entity(id string) (entity.Entity, error) {
	args := m.Called(id)

	if e, ok := args.Get(0).(entity.Entity); ok {
		return e, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockIntegration) Enabled(id string) bool {
	return m.Called(id).Bool(0)
}

func (m *mockIntegration) SetEnabled(id string, enabled bool) error {
	return m.Called(id, enabled).Error(0)
}

func (m *mockIntegration) Devices() []integration.KnownDevice {
	return m.Called().Get(0).([]integration.KnownDevice)
}

func (m *mockIntegration) TurnOn(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIntegration) TurnOff(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIntegration) Install(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIntegration) CallService(ctx context.Context, service string, deviceID string) error {
	return m.Called(ctx, service, deviceID).Error(0)
}

type stubEntity struct {
	entity.Entity
}

func (stubEntity) UniqueID() string { return "myjdownloader_stub_sensor" }
func (stubEntity) Name() string { return "stub" }
func (stubEntity) Key() string { return "stub" }
func (stubEntity) Kind() entity.Kind { return entity.KindSensor }
func (stubEntity) Category() entity.Category { return entity.CategoryNone }
func (stubEntity) DeviceID() string { return "id" }
func (stubEntity) DeviceInfo() *entity.DeviceInfo { return nil }
func (stubEntity) State() entity.State { return entity.State{Value: 4, Available: true} }

func newTestRouter(t *testing.T) (*gin.Engine, *mockIntegration) {
	gin.SetMode(gin.TestMode)

	mi := &mockIntegration{}
	t.Cleanup(func() { mi.AssertExpectations(t) })

	return NewRouter(Deps{Integration: mi, Logger: logwrap.New(discard.Discard())}), mi
}

func serve(r http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	return w
}

func TestRouter_Entities(t *testing.T) {
	t.Run("lists entities with their state and enabled flag", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("Entities").Return([]entity.Entity{stubEntity{}})
		mi.On("Enabled", "myjdownloader_stub_sensor").Return(true)

		w := serve(r, http.MethodGet, "/entities", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entities []entityView `json:"entities"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entities, 1)

		assert.Equal(t, "myjdownloader_stub_sensor", resp.Entities[0].UniqueID)
		assert.True(t, resp.Entities[0].Enabled)
		assert.Equal(t, float64(4), resp.Entities[0].State.Value)
	})

	t.Run("returns not found for unknown entities", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("Entity", "missing").Return(nil, fmt.Errorf("%w: missing", integration.ErrUnknownEntity))

		w := serve(r, http.MethodGet, "/entities/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("sets the enabled flag", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("SetEnabled", "e", false).Return(nil)

		w := serve(r, http.MethodPut, "/entities/e/enabled", map[string]any{"enabled": false})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an enabled body without the flag", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := serve(r, http.MethodPut, "/entities/e/enabled", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_Commands(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		method string
		err    error
		status int
	}{
		{"turns on a switch", "/entities/s/turn_on", "TurnOn", nil, http.StatusOK},
		{"turns off a switch", "/entities/s/turn_off", "TurnOff", nil, http.StatusOK},
		{"installs an update", "/entities/s/install", "Install", nil, http.StatusOK},
		{"maps offline devices to conflict", "/entities/s/turn_on", "TurnOn", &myjd.DeviceOfflineError{DeviceID: "id"}, http.StatusConflict},
		{"maps unsupported commands to bad request", "/entities/s/install", "Install", entity.ErrNotSupported, http.StatusBadRequest},
		{"maps relay failures to bad gateway", "/entities/s/turn_off", "TurnOff", &myjd.RelayCallError{Op: "exec", Err: errors.New("timeout")}, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, mi := newTestRouter(t)
			mi.On(tc.method, mock.Anything, "s").Return(tc.err)

			w := serve(r, http.MethodPost, tc.path, nil)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouter_Services(t *testing.T) {
	t.Run("calls a service on a device", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("CallService", mock.Anything, entity.ServiceStartDownloads, "id").Return(nil)

		w := serve(r, http.MethodPost, "/services/start_downloads", map[string]any{"device_id": "id"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown services are not found", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("CallService", mock.Anything, "explode", "id").Return(fmt.Errorf("%w: explode", entity.ErrUnknownService))

		w := serve(r, http.MethodPost, "/services/explode", map[string]any{"device_id": "id"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("a device id is required", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := serve(r, http.MethodPost, "/services/start_downloads", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists services", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := serve(r, http.MethodGet, "/services", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), entity.ServiceRestartAndUpdate)
	})
}

func TestRouter_Devices(t *testing.T) {
	t.Run("lists known devices", func(t *testing.T) {
		r, mi := newTestRouter(t)
		mi.On("Devices").Return([]integration.KnownDevice{{ID: "id", Name: "Box", Online: true}})

		w := serve(r, http.MethodGet, "/devices", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Box"`)
	})

	t.Run("reports health", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := serve(r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestListenAndServe(t *testing.T) {
	t.Run("returns when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler()))
	})
}
