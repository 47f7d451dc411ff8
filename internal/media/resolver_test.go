package media

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "asset_1.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewResolver(dir, []string{"primary", "secondary"})
}

func TestResolveClip(t *testing.T) {
	r := newTestResolver(t)

	if got := r.Resolve("clip:primary"); got.Status != StatusOK {
		t.Errorf("known clip = %+v", got)
	}
	got := r.Resolve("clip:tertiary")
	if got.Status != StatusMissing || got.Reason == "" {
		t.Errorf("unknown clip = %+v", got)
	}
}

func TestResolveAsset(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("asset:asset_1")
	if got.Status != StatusOK || got.URL != "/assets/asset_1.png" {
		t.Errorf("stored asset = %+v", got)
	}
	if got := r.Resolve("asset:asset_2"); got.Status != StatusMissing {
		t.Errorf("absent asset = %+v", got)
	}
}

func TestResolveURL(t *testing.T) {
	r := newTestResolver(t)

	got := r.Resolve("url:https://example.com/clip.mp4")
	if got.Status != StatusOK || got.URL != "https://example.com/clip.mp4" {
		t.Errorf("https url = %+v", got)
	}
	if got := r.Resolve("url:ftp://example.com/clip.mp4"); got.Status != StatusError {
		t.Errorf("non-http url = %+v", got)
	}
}

func TestResolveMalformed(t *testing.T) {
	r := newTestResolver(t)

	for _, ref := range []string{"", "primary", "clip:", "blob:xyz"} {
		if got := r.Resolve(ref); got.Status != StatusError {
			t.Errorf("Resolve(%q) = %+v, want error", ref, got)
		}
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	r := newTestResolver(t)

	refs := []string{"clip:primary", "asset:asset_2", "url:https://example.com/a"}
	out := r.ResolveAll(refs)

	if len(out) != len(refs) {
		t.Fatalf("len = %d", len(out))
	}
	for i, res := range out {
		if res.Ref != refs[i] {
			t.Errorf("out[%d].Ref = %q, want %q", i, res.Ref, refs[i])
		}
	}
	if out[0].Status != StatusOK || out[1].Status != StatusMissing || out[2].Status != StatusOK {
		t.Errorf("statuses = %+v", out)
	}
}
