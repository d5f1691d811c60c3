package domain

import "testing"

func TestResolveAssetURL(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		base string
		want string
	}{
		{"relative", "Hero-header-1-Lyue.js@o8jazO3DJk1kN3WrrSdv", DefaultAssetBase, "https://framer.com/m/Hero-header-1-Lyue.js@o8jazO3DJk1kN3WrrSdv"},
		{"absolute passthrough", "https://cdn.example.com/x.js", DefaultAssetBase, "https://cdn.example.com/x.js"},
		{"base without slash", "navbar-7", "https://assets.example.com/m", "https://assets.example.com/m/navbar-7"},
		{"default base", "navbar-7", "", "https://framer.com/m/navbar-7"},
		{"empty", "", DefaultAssetBase, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAssetURL(tt.ref, tt.base); got != tt.want {
				t.Errorf("ResolveAssetURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithResolvedURLKeepsOriginal(t *testing.T) {
	c := Component{ID: "5", URL: "navbar-7"}
	got := c.WithResolvedURL(DefaultAssetBase)
	if got.URL != "navbar-7" {
		t.Errorf("URL mutated: %q", got.URL)
	}
	if got.ResolvedURL != "https://framer.com/m/navbar-7" {
		t.Errorf("ResolvedURL = %q", got.ResolvedURL)
	}
	if c.ResolvedURL != "" {
		t.Error("receiver must not be modified")
	}
}

func TestParseContentType(t *testing.T) {
	for _, raw := range []string{"layouts", "WebUI", " tokens ", "templates"} {
		if _, err := ParseContentType(raw); err != nil {
			t.Errorf("ParseContentType(%q) error = %v", raw, err)
		}
	}
	if _, err := ParseContentType("widgets"); err == nil {
		t.Error("ParseContentType(widgets) should fail")
	}
}

func TestCanUse(t *testing.T) {
	free := Component{ID: "1", IsPro: false}
	pro := Component{ID: "2", IsPro: true}
	if !CanUse(free, false) || !CanUse(free, true) {
		t.Error("free components are always usable")
	}
	if CanUse(pro, false) {
		t.Error("pro component must be gated without entitlement")
	}
	if !CanUse(pro, true) {
		t.Error("pro component must be usable with entitlement")
	}
}
