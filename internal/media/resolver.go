// Package media resolves item source references and stores uploaded assets.
package media

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Source reference schemes: "clip:" names a live capture feed, "asset:" an
// uploaded file, "url:" a remote resource.
const (
	SchemeClip  = "clip"
	SchemeAsset = "asset"
	SchemeURL   = "url"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusError   Status = "error"
)

// Resolution is the outcome of resolving one source reference. A missing or
// erroring source never blocks layout editing; the renderer shows a
// placeholder.
type Resolution struct {
	Ref    string `json:"ref"`
	Status Status `json:"status"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Resolver maps source references to fetchable URLs.
type Resolver struct {
	assetDir string
	clips    map[string]bool
}

// NewResolver creates a resolver over the asset directory. Known clip names
// identify the live feeds the host exposes.
func NewResolver(assetDir string, clipNames []string) *Resolver {
	clips := make(map[string]bool, len(clipNames))
	for _, n := range clipNames {
		clips[n] = true
	}
	return &Resolver{assetDir: assetDir, clips: clips}
}

func (r *Resolver) Resolve(ref string) Resolution {
	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok || rest == "" {
		return Resolution{Ref: ref, Status: StatusError, Reason: "malformed source reference"}
	}

	switch scheme {
	case SchemeClip:
		if !r.clips[rest] {
			return Resolution{Ref: ref, Status: StatusMissing, Reason: fmt.Sprintf("unknown clip %q", rest)}
		}
		return Resolution{Ref: ref, Status: StatusOK}

	case SchemeAsset:
		path := filepath.Join(r.assetDir, rest+".png")
		if _, err := os.Stat(path); err != nil {
			return Resolution{Ref: ref, Status: StatusMissing, Reason: "asset file not found"}
		}
		return Resolution{Ref: ref, Status: StatusOK, URL: "/assets/" + rest + ".png"}

	case SchemeURL:
		u, err := url.Parse(rest)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return Resolution{Ref: ref, Status: StatusError, Reason: "invalid url"}
		}
		return Resolution{Ref: ref, Status: StatusOK, URL: rest}

	default:
		return Resolution{Ref: ref, Status: StatusError, Reason: fmt.Sprintf("unknown scheme %q", scheme)}
	}
}

// ResolveAll resolves a batch of references, preserving order.
func (r *Resolver) ResolveAll(refs []string) []Resolution {
	out := make([]Resolution, len(refs))
	for i, ref := range refs {
		out[i] = r.Resolve(ref)
	}
	return out
}
