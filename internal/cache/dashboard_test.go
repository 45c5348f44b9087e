package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
)

type payload struct {
	Total int `json:"total"`
}

func setupTestCache(t *testing.T, ttl time.Duration) (*DashboardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDashboardCache(client, ttl, zap.NewNop()), mr
}

func TestDashboardCache_SetGet(t *testing.T) {
	c, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()
	key := DepartmentKey(model.DepartmentSales)

	var out payload
	hit, err := c.Get(ctx, key, &out)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, key, payload{Total: 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	hit, err = c.Get(ctx, key, &out)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if out.Total != 4 {
		t.Errorf("expected total 4, got %d", out.Total)
	}
}

func TestDashboardCache_Expires(t *testing.T) {
	c, mr := setupTestCache(t, 30*time.Second)
	ctx := context.Background()
	key := UserKey(model.DepartmentSales, 2)

	if err := c.Set(ctx, key, payload{Total: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var out payload
	if hit, _ := c.Get(ctx, key, &out); hit {
		t.Error("expected entry to expire")
	}
}

func TestDashboardCache_Invalidate(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	deptKey := DepartmentKey(model.DepartmentSales)
	userKey := UserKey(model.DepartmentSales, 2)
	otherKey := UserKey(model.DepartmentSales, 3)
	for _, k := range []string{deptKey, userKey, otherKey} {
		if err := c.Set(ctx, k, payload{Total: 1}); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	if err := c.Invalidate(ctx, model.DepartmentSales, 2); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if mr.Exists(deptKey) || mr.Exists(userKey) {
		t.Error("expected department and user dashboards to be dropped")
	}
	if !mr.Exists(otherKey) {
		t.Error("unrelated user dashboard must survive")
	}
}

func TestDashboardCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	key := DepartmentKey(model.DepartmentMarketing)
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out payload
	hit, err := c.Get(context.Background(), key, &out)
	if hit || err != nil {
		t.Errorf("expected silent miss, got hit=%v err=%v", hit, err)
	}
	if mr.Exists(key) {
		t.Error("expected corrupt entry to be removed")
	}
}
