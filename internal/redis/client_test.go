package redisdb

import (
	"context"
	"testing"

	"tamilbot/internal/config"
)

func TestNewClient_BasicConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Password = ""
	cfg.Redis.DB = 15

	client := NewClient(cfg)
	if client == nil {
		t.Fatalf("NewClient returned nil")
	}
	opts := client.Options()
	if opts.Addr != cfg.Redis.Addr {
		t.Errorf("expected Addr %s, got %s", cfg.Redis.Addr, opts.Addr)
	}
	if opts.DB != cfg.Redis.DB {
		t.Errorf("expected DB %d, got %d", cfg.Redis.DB, opts.DB)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := &config.Config{}
	rdb, err := Connect(context.Background(), cfg)
	if err != nil || rdb != nil {
		t.Fatalf("expected nil client and no error when disabled, got %v, %v", rdb, err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"
	if _, err := Connect(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}
