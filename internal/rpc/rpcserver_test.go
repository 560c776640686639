package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/6529-Collections/marketview/internal/db/testdb"
	"github.com/6529-Collections/marketview/internal/metrics"
	"github.com/6529-Collections/marketview/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartRPCServer_StartAndClose(t *testing.T) {
	backend := setupBackend(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, backend, ctx)
	defer closeFunc()

	// Give server some time to start
	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, bodyBytes, "expected non-empty response body for /api/v1/status")

	// Now close the server
	start := time.Now()
	closeFunc()
	elapsed := time.Since(start)
	require.Less(t, elapsed, 5*time.Second, "server shutdown took too long")

	// Confirm server is closed
	time.Sleep(100 * time.Millisecond)
	_, err = http.Get(url)
	require.Error(t, err, "expected error after server shutdown, got none")
}

func TestStartRPCServer_InvalidRoute(t *testing.T) {
	backend := setupBackend(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, backend, ctx)
	defer closeFunc()

	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/invalid-route", port)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResponseWriter_StatusCodeCapture(t *testing.T) {
	backend := setupBackend(t)

	core, logs := observer.New(zap.InfoLevel)
	testLogger := zap.New(core)
	originalLogger := zap.L()
	zap.ReplaceGlobals(testLogger)
	defer zap.ReplaceGlobals(originalLogger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, backend, ctx)
	defer closeFunc()

	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)

	foundStatusLog := false
	foundIPLog := false
	foundMethodLog := false
	foundPathLog := false

	for _, entry := range logs.All() {
		if entry.Message == "Request" {
			for _, f := range entry.Context {
				switch f.Key {
				case "status":
					if f.Integer == int64(http.StatusOK) {
						foundStatusLog = true
					}
				case "ip":
					if f.String != "" {
						foundIPLog = true
					}
				case "method":
					if f.String == http.MethodGet {
						foundMethodLog = true
					}
				case "path":
					if f.String == "/api/v1/status" {
						foundPathLog = true
					}
				}
			}
		}
	}
	if !foundStatusLog || !foundIPLog || !foundMethodLog || !foundPathLog {
		t.Errorf("did not find expected log fields: status, ip, method, path")
	}
}

func TestServer_ConcurrentRequests(t *testing.T) {
	backend := setupBackend(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, backend, ctx)
	defer closeFunc()

	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port)

	const numRequests = 10
	errChan := make(chan error, numRequests)

	for i := 0; i < numRequests; i++ {
		go func() {
			resp, err := http.Get(url)
			if err != nil {
				errChan <- fmt.Errorf("failed to connect: %v", err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				errChan <- fmt.Errorf("expected 200, got %d", resp.StatusCode)
				return
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				errChan <- fmt.Errorf("failed to read body: %v", err)
				return
			}
			if len(body) == 0 {
				errChan <- fmt.Errorf("expected non-empty body")
				return
			}
			errChan <- nil
		}()
	}

	for i := 0; i < numRequests; i++ {
		require.NoError(t, <-errChan)
	}
}

func checkResponse(t *testing.T, port int, path string, expectedStatusCode int) {
	url := fmt.Sprintf("http://127.0.0.1:%d/%s", port, path)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, expectedStatusCode, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	require.NotEmpty(t, body, "expected some response from "+url)
}

func TestStartRPCServer_MarketEndpoints(t *testing.T) {
	backend := setupBackend(t)
	metrics.Engine()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, backend, ctx)
	defer closeFunc()

	time.Sleep(100 * time.Millisecond)

	checkResponse(t, port, "api/v1/assets/0x00000000000000000000000000000000000000bb/1", http.StatusNotFound)
	checkResponse(t, port, "api/v1/assets/0x00000000000000000000000000000000000000bb/1/history", http.StatusNotFound)
	checkResponse(t, port, "api/v1/auctions/0xaa-1", http.StatusNotFound)
	checkResponse(t, port, "api/v1/auctions/0xaa-1/bids", http.StatusNotFound)
	checkResponse(t, port, "api/v1/creators/0x1111111111111111111111111111111111111111", http.StatusNotFound)
	checkResponse(t, port, "api/v1/accounts/0x1111111111111111111111111111111111111111", http.StatusNotFound)
	checkResponse(t, port, "metrics", http.StatusOK)
}

func setupBackend(t *testing.T) store.Backend {
	sqlDB, cleanup := testdb.SetupTestDB(t)
	t.Cleanup(cleanup)
	return store.NewSQLiteBackend(sqlDB)
}
