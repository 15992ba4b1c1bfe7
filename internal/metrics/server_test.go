package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Start(t *testing.T) {
	tests := []struct {
		name           string
		setupMetrics   func(registry *prometheus.Registry)
		validateServer func(*testing.T, string)
	}{
		{
			name: "server starts and serves metrics successfully",
			setupMetrics: func(registry *prometheus.Registry) {
				testGauge := prometheus.NewGauge(prometheus.GaugeOpts{
					Name: "test_metric",
					Help: "Test metric",
				})
				registry.MustRegister(testGauge)
				testGauge.Set(42.0)
			},
			validateServer: func(t *testing.T, addr string) {
				resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
				require.NoError(t, err)
				defer resp.Body.Close()

				assert.Equal(t, http.StatusOK, resp.StatusCode)

				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "test_metric 42")

				health, err := http.Get(fmt.Sprintf("http://%s/health", addr))
				require.NoError(t, err)
				defer health.Body.Close()

				assert.Equal(t, http.StatusOK, health.StatusCode)
			},
		},
		{
			name: "server handles concurrent requests",
			setupMetrics: func(registry *prometheus.Registry) {
				registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
					Name: "request_counter",
					Help: "Test counter",
				}))
			},
			validateServer: func(t *testing.T, addr string) {
				var wg sync.WaitGroup
				codes := make(chan int, 10)
				for i := 0; i < 10; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
						if err != nil {
							codes <- 0
							return
						}
						resp.Body.Close()
						codes <- resp.StatusCode
					}()
				}
				wg.Wait()
				close(codes)
				for code := range codes {
					assert.Equal(t, http.StatusOK, code)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := prometheus.NewRegistry()
			tt.setupMetrics(registry)

			listener, err := net.Listen("tcp", "localhost:0")
			require.NoError(t, err)
			addr := listener.Addr().String()
			listener.Close()

			server := NewServer(addr, registry, registry)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(ctx)
			}()

			require.NoError(t, waitForServer(addr, 2*time.Second), "Server failed to start")

			tt.validateServer(t, addr)

			cancel()
			select {
			case err := <-errCh:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Server didn't shut down within timeout")
			}

			_, err = http.Get(fmt.Sprintf("http://%s/metrics", addr))
			assert.Error(t, err, "Server should be stopped")
		})
	}
}

// waitForServer polls the health endpoint until the server answers.
func waitForServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server failed to start within %v", timeout)
}
