package httpserver

import (
	"net/http"
	"testing"
	"time"

	"tavern.local/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		Addr:              ":9999",
		AdminAddr:         "127.0.0.1:6060",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func TestNewAppliesConfig(t *testing.T) {
	cfg := testConfig()
	srv := New(cfg, http.NewServeMux())

	if srv.Addr != ":9999" {
		t.Fatalf("Addr = %q", srv.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout || srv.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("timeouts not applied: %v %v", srv.ReadHeaderTimeout, srv.IdleTimeout)
	}
}

func TestNewAdminBindsAdminAddr(t *testing.T) {
	cfg := testConfig()
	srv := NewAdmin(cfg, http.NewServeMux())

	if srv.Addr != "127.0.0.1:6060" {
		t.Fatalf("Addr = %q, want admin addr", srv.Addr)
	}
	if srv.WriteTimeout != cfg.WriteTimeout {
		t.Fatalf("WriteTimeout = %v", srv.WriteTimeout)
	}
}
