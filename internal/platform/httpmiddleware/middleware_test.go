package httpmiddleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tavern.local/internal/platform/auth"
)

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestReqIDGenerated(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	}), ReqID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if len(seen) != 32 {
		t.Fatalf("generated id = %q, want 32 hex chars", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("response header mismatch: %q != %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestReqIDPreserved(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), ReqID())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Fatalf("got %q, want upstream-id", got)
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRecoveryKeepsStartedResponse(t *testing.T) {
	// 响应已经写出一部分时不能再写 500
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("after write")
	}), Recovery())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestParseBearer(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer", ""},
		{"Basic abc", ""},
		{"Bearer a b", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := parseBearer(tc.header); got != tc.want {
			t.Fatalf("parseBearer(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

type fakeTokenService struct {
	claims auth.Claims
	err    error
}

func (f *fakeTokenService) Sign(string, string) (string, error) { return "", nil }
func (f *fakeTokenService) Verify(string) (auth.Claims, error)  { return f.claims, f.err }

func TestAuthRequired(t *testing.T) {
	ts := &fakeTokenService{claims: auth.Claims{UserID: "u1", Role: "player"}}
	var got auth.Identity
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.GetIdentity(r.Context())
	}), AuthRequired(ts))

	// 无 header
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d, want 401", rec.Code)
	}

	// 坏格式
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad scheme: status = %d, want 401", rec.Code)
	}

	// 校验失败
	ts.err = errors.New("bad signature")
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec.Code)
	}

	// 放行并注入身份
	ts.err = nil
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
	if got.UserID != "u1" || got.Role != "player" {
		t.Fatalf("identity = %+v", got)
	}
}

func TestAuthOptional(t *testing.T) {
	ts := &fakeTokenService{claims: auth.Claims{UserID: "u1"}}
	var ok bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = auth.GetIdentity(r.Context())
	}), AuthOptional(ts))

	// 无 token 放行且无身份
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || ok {
		t.Fatalf("anonymous: status=%d identity=%v", rec.Code, ok)
	}

	// 坏 token 同样放行
	ts.err = errors.New("expired")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || ok {
		t.Fatalf("bad token: status=%d identity=%v", rec.Code, ok)
	}

	// 好 token 注入身份
	ts.err = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !ok {
		t.Fatalf("identity not injected for valid token")
	}
}

func TestRequireRole(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), RequireRole("admin"))

	// 无身份
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no identity: status = %d, want 401", rec.Code)
	}

	// 角色不符
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1", Role: "player"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role: status = %d, want 403", rec.Code)
	}

	// 角色匹配
	req = httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1", Role: "admin"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"public peer ignores headers", "203.0.113.9:1234", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "203.0.113.9"},
		{"loopback trusts cf header", "127.0.0.1:1234", map[string]string{"CF-Connecting-IP": "198.51.100.7"}, "198.51.100.7"},
		{"private trusts first xff hop", "192.168.1.5:1234", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"private trusts x-real-ip", "10.1.2.3:1234", map[string]string{"X-Real-IP": "198.51.100.8"}, "198.51.100.8"},
		{"trusted proxy without headers", "172.17.0.2:1234", nil, "172.17.0.2"},
		{"garbage header falls back", "127.0.0.1:1234", map[string]string{"X-Forwarded-For": "not-an-ip"}, "127.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimitNilLimiterPassthrough(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RateLimit(nil, "test", 1, 0))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
