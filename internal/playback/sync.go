// Package playback keeps two video surfaces presenting the same source in
// lockstep, so the editing canvas and the preview never drift apart.
package playback

import (
	"log/slog"
	"math"
)

// Surface is a host-controlled video element the engine can steer. Times are
// seconds from the start of the clip.
type Surface interface {
	CurrentTime() float64
	Seek(t float64)
	Playing() bool
	SetPlaying(playing bool)
}

// DriftTolerance is how far (seconds) the follower may lag or lead before a
// corrective seek fires. Small seeks on every frame cause stutter, so the
// follower free-runs inside the band.
const DriftTolerance = 0.15

// Link mirrors playback state from a primary surface onto a follower. All
// methods must be called from the host's UI loop; Link is not safe for
// concurrent use.
type Link struct {
	primary  Surface
	follower Surface
	log      *slog.Logger

	// syncing guards against feedback: a corrective Seek on the follower
	// can raise host events that would re-enter Sync.
	syncing bool
}

// NewLink pairs a primary surface with a follower.
func NewLink(primary, follower Surface, log *slog.Logger) *Link {
	if log == nil {
		log = slog.Default()
	}
	return &Link{primary: primary, follower: follower, log: log}
}

// Sync reconciles the follower against the primary. Call once per animation
// frame and after any host playback event.
func (l *Link) Sync() {
	if l.syncing {
		return
	}
	l.syncing = true
	defer func() { l.syncing = false }()

	if playing := l.primary.Playing(); playing != l.follower.Playing() {
		l.follower.SetPlaying(playing)
	}

	drift := l.primary.CurrentTime() - l.follower.CurrentTime()
	if math.Abs(drift) > DriftTolerance {
		l.log.Debug("correcting playback drift", "drift", drift)
		l.follower.Seek(l.primary.CurrentTime())
	}
}

// SeekBoth moves both surfaces to t, primary first.
func (l *Link) SeekBoth(t float64) {
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	l.syncing = true
	defer func() { l.syncing = false }()

	l.primary.Seek(t)
	l.follower.Seek(t)
}

// SetPlaying starts or pauses both surfaces together.
func (l *Link) SetPlaying(playing bool) {
	l.syncing = true
	defer func() { l.syncing = false }()

	l.primary.SetPlaying(playing)
	l.follower.SetPlaying(playing)
}
