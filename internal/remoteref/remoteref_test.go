package remoteref

import (
	"testing"

	"soundcatalog/internal/config"
)

func TestURL(t *testing.T) {
	g := New("cw-sounds", "", map[string]string{
		"FilmCow": "https://cdn.example.com/{source}/{filename}",
	})
	cases := []struct {
		source, filename, want string
	}{
		{"mixkit", "/lib/mixkit/door slam.wav", "https://storage.googleapis.com/cw-sounds/mixkit/door%20slam.wav"},
		{"google", "a#b?.mp3", "https://storage.googleapis.com/cw-sounds/google/a%23b%3F.mp3"},
		{"filmcow", "boing.ogg", "https://cdn.example.com/filmcow/boing.ogg"},
	}
	for _, tc := range cases {
		if got := g.URL(tc.source, tc.filename); got != tc.want {
			t.Errorf("URL(%q, %q) = %q, want %q", tc.source, tc.filename, got, tc.want)
		}
	}
	if g.URL("mixkit", "x.wav") != g.URL("mixkit", "x.wav") {
		t.Fatal("URL must be deterministic")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Bucket = "b"
	cfg.Sources = []config.Source{
		{Name: "mixkit", Path: "/m", URLTemplate: "s3://{bucket}/{filename}"},
		{Name: "google", Path: "/g"},
	}
	g := FromConfig(&cfg)
	if got := g.URL("mixkit", "x.wav"); got != "s3://b/x.wav" {
		t.Fatalf("per-source template ignored: %q", got)
	}
	if got := g.URL("google", "x.wav"); got != "https://storage.googleapis.com/b/google/x.wav" {
		t.Fatalf("default template not used: %q", got)
	}
}

func TestInferSource(t *testing.T) {
	cases := map[string]string{
		"/drive/Sounds/Mixkit/effects": "mixkit",
		"/drive/filmcow_pack":          "filmcow",
		"/drive/library":               "google",
	}
	for path, want := range cases {
		if got := InferSource(path); got != want {
			t.Errorf("InferSource(%q) = %q, want %q", path, got, want)
		}
	}
}
