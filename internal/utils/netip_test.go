package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", "203.0.113.7:5000", nil, false, "203.0.113.7"},
		{"proxy headers ignored", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "198.51.100.2"}, false, "10.0.0.1"},
		{"forwarded for left-most", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": " 198.51.100.2 , 10.0.0.1"}, true, "198.51.100.2"},
		{"cloudflare first", "10.0.0.1:5000", map[string]string{"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "198.51.100.2"}, true, "198.51.100.9"},
		{"garbage header falls through", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.3"}, true, "198.51.100.3"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, false, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.10 ", "2001:db8::/32", "not-an-ip", ""})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"192.168.1.10", true},
		{"192.168.1.11", false},
		{"::ffff:10.1.1.1", true},
		{"2001:db8::42", true},
		{"2001:db9::1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("empty list should give an empty matcher")
	}
}
