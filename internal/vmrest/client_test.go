package vmrest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *logger.BufferLogger) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	log := logger.NewBufferLogger()
	c, err := NewClient(Options{
		BaseURL:  srv.URL + "/api/vms",
		Username: "alice",
		Password: "secret",
		Timeout:  time.Second,
		Logger:   log,
	})
	require.NoError(t, err)
	return c, log
}

func TestClient_ListVMs(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/vms", r.URL.Path)
		assert.Equal(t, mediaType, r.Header.Get("Accept"))

		_, _ = io.WriteString(w, `[{"id":"ABC","path":"/vms/a.vmx"},{"id":"DEF","path":"/vms/b.vmx"}]`)
	})

	vms, err := c.ListVMs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []VMSummary{{ID: "ABC", Path: "/vms/a.vmx"}, {ID: "DEF", Path: "/vms/b.vmx"}}, vms)
}

func TestClient_PowerState(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vms/ABC/power", r.URL.Path)
		_, _ = io.WriteString(w, `{"power_state":"poweredOn"}`)
	})

	p, err := c.PowerState(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, PowerOn, p)
}

func TestClient_Details(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vms/ABC", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"ABC","cpu":{"processors":4},"memory":8192}`)
	})

	d, err := c.Details(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "ABC", d.ID)
	assert.Equal(t, 4, d.CPU.Processors)
	assert.Equal(t, 8192, d.Memory)
}

func TestClient_SetPower(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/api/vms/ABC/power", r.URL.Path)
				assert.Equal(t, mediaType, r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, "shutdown", string(body))
				w.WriteHeader(status)
			})

			require.NoError(t, c.SetPower(context.Background(), "ABC", ActionShutdown))

			msgs := log.Messages()
			require.NotEmpty(t, msgs)
			assert.True(t, msgs[len(msgs)-1].API)
		})
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
		status   int
	}{
		{
			name:     "unauthorized",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantCode: errors.ErrAuth,
			status:   http.StatusUnauthorized,
		},
		{
			name:     "forbidden",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			wantCode: errors.ErrAuth,
			status:   http.StatusForbidden,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"Code":100,"Message":"internal"}`)
			},
			wantCode: errors.ErrRejected,
			status:   http.StatusInternalServerError,
		},
		{
			name:     "malformed json",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `not json`) },
			wantCode: errors.ErrInvalidResponse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(3 * time.Second):
				case <-r.Context().Done():
				}
			},
			wantCode: errors.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)

			_, err := c.ListVMs(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url + "/api/vms", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.PowerState(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, errors.ErrNetwork, errors.CodeOf(err))
	assert.True(t, errors.IsTransient(err))
}

func TestClient_RejectedPowerAction(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := c.SetPower(context.Background(), "ABC", ActionSuspend)
	require.Error(t, err)
	assert.Equal(t, errors.ErrRejected, errors.CodeOf(err))
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestClient_QuietContextLogger(t *testing.T) {
	c, root := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	quiet := logger.NewBufferLogger()
	ctx := logger.Into(context.Background(), quiet.Quiet())
	_, err := c.ListVMs(ctx)
	require.NoError(t, err)

	assert.Empty(t, root.Messages())
	msgs := quiet.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Quiet)
	assert.True(t, msgs[0].API)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "http://127.0.0.1:1/api/vms", RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)
	// Drain the single burst token.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.ListVMs(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(err))
}
