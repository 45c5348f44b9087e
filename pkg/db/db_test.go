package db

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/config"
)

func testDBConfig() config.DBConfig {
	return config.DBConfig{Host: "localhost", Port: 5432, User: "app", Password: "pw", Name: "tasks"}
}

func TestPoolConfig_Defaults(t *testing.T) {
	poolCfg, err := poolConfig(testDBConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if poolCfg.MaxConns != defaultMaxConns || poolCfg.MinConns != defaultMinConns {
		t.Errorf("conns = %d/%d, want %d/%d", poolCfg.MinConns, poolCfg.MaxConns, defaultMinConns, defaultMaxConns)
	}
	if poolCfg.MaxConnIdleTime != defaultMaxConnIdleTime {
		t.Errorf("idle = %v", poolCfg.MaxConnIdleTime)
	}
	tracer, ok := poolCfg.ConnConfig.Tracer.(*SlowQueryTracer)
	if !ok || tracer.slowThreshold != 100*time.Millisecond {
		t.Errorf("expected default slow query tracer, got %#v", poolCfg.ConnConfig.Tracer)
	}
}

func TestPoolConfig_FromConfig(t *testing.T) {
	cfg := testDBConfig()
	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.SlowQueryThreshold = 250 * time.Millisecond

	poolCfg, err := poolConfig(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if poolCfg.MaxConns != 25 || poolCfg.MinConns != 5 || poolCfg.MaxConnIdleTime != 30*time.Second {
		t.Errorf("unexpected pool sizing: max=%d min=%d idle=%v", poolCfg.MaxConns, poolCfg.MinConns, poolCfg.MaxConnIdleTime)
	}
	if tracer := poolCfg.ConnConfig.Tracer.(*SlowQueryTracer); tracer.slowThreshold != 250*time.Millisecond {
		t.Errorf("slow threshold = %v", tracer.slowThreshold)
	}
}

func TestPoolConfig_MinNeverExceedsMax(t *testing.T) {
	cfg := testDBConfig()
	cfg.MaxConns = 3
	cfg.MinConns = 8

	poolCfg, err := poolConfig(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if poolCfg.MinConns != 3 {
		t.Errorf("min conns = %d, want 3", poolCfg.MinConns)
	}
}
