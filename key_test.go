package staticdata

import "testing"

func TestKeyDerivation(t *testing.T) {
	if got := Key("post", "42"); got != "post-42" {
		t.Fatalf("expected post-42, got %q", got)
	}
	if got := Key("config", ""); got != "config-" {
		t.Fatalf("expected config-, got %q", got)
	}
}

func TestArtifactName(t *testing.T) {
	if got := artifactName("post-42"); got != "post-42.json" {
		t.Fatalf("expected post-42.json, got %q", got)
	}
}

func TestJoinArtifactURL(t *testing.T) {
	for _, tc := range []struct {
		base string
		name string
		want string
	}{
		{"", "post-42.json", "/post-42.json"},
		{"/", "post-42.json", "/post-42.json"},
		{"/static", "post-42.json", "/static/post-42.json"},
		{"/static/", "post-42.json", "/static/post-42.json"},
		{"https://cdn.example.com/data", "post-42.json", "https://cdn.example.com/data/post-42.json"},
		{"https://cdn.example.com/data/", "/post-42.json", "https://cdn.example.com/data/post-42.json"},
	} {
		if got := joinArtifactURL(tc.base, tc.name); got != tc.want {
			t.Fatalf("joinArtifactURL(%q, %q) = %q, want %q", tc.base, tc.name, got, tc.want)
		}
	}
}
