package ratelimit

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKey(t *testing.T) {
	cases := []struct {
		scope, client, want string
	}{
		{"login", "203.0.113.9", "rl:login:203.0.113.9"},
		{"rules", "::1", "rl:rules:::1"},
	}
	for _, tc := range cases {
		if got := Key(tc.scope, tc.client); got != tc.want {
			t.Fatalf("Key(%q, %q) = %q, want %q", tc.scope, tc.client, got, tc.want)
		}
	}
}

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client)
}

func TestLimiterSlidingWindow(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	// key 带时间戳，重复跑测试时不会撞上一轮留下的窗口
	key := Key("test", strconv.FormatInt(time.Now().UnixNano(), 10))

	for i := 0; i < 2; i++ {
		allowed, _, err := l.Allow(ctx, key, 2, time.Minute, "m-"+strconv.Itoa(i))
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d within limit was denied", i)
		}
	}

	allowed, retryAfter, err := l.Allow(ctx, key, 2, time.Minute, "m-over")
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed {
		t.Fatal("third request in a 2-limit window was allowed")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("retryAfter = %v, want (0, window]", retryAfter)
	}
}
