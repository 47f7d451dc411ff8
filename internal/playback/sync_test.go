package playback

import "testing"

// fakeSurface records steering calls.
type fakeSurface struct {
	time    float64
	playing bool
	seeks   []float64
}

func (s *fakeSurface) CurrentTime() float64 { return s.time }
func (s *fakeSurface) Playing() bool        { return s.playing }
func (s *fakeSurface) SetPlaying(p bool)    { s.playing = p }
func (s *fakeSurface) Seek(t float64) {
	s.time = t
	s.seeks = append(s.seeks, t)
}

func TestSyncCorrectsDrift(t *testing.T) {
	primary := &fakeSurface{time: 10}
	follower := &fakeSurface{time: 10 - DriftTolerance - 0.05}
	l := NewLink(primary, follower, nil)

	l.Sync()

	if len(follower.seeks) != 1 || follower.seeks[0] != 10 {
		t.Fatalf("seeks = %v, want one corrective seek to 10", follower.seeks)
	}
	if follower.time != 10 {
		t.Errorf("follower time = %v", follower.time)
	}
}

func TestSyncFreeRunsInsideTolerance(t *testing.T) {
	primary := &fakeSurface{time: 10}
	follower := &fakeSurface{time: 10 - DriftTolerance + 0.01}
	l := NewLink(primary, follower, nil)

	l.Sync()

	if len(follower.seeks) != 0 {
		t.Errorf("seeks = %v, want none inside the tolerance band", follower.seeks)
	}
}

func TestSyncMirrorsPlayState(t *testing.T) {
	primary := &fakeSurface{playing: true}
	follower := &fakeSurface{}
	l := NewLink(primary, follower, nil)

	l.Sync()
	if !follower.playing {
		t.Error("follower did not start playing")
	}

	primary.playing = false
	l.Sync()
	if follower.playing {
		t.Error("follower did not pause")
	}
}

// reentrantSurface calls Sync back from Seek, like a host that raises a
// seeked event synchronously.
type reentrantSurface struct {
	fakeSurface
	link *Link
}

func (s *reentrantSurface) Seek(t float64) {
	s.fakeSurface.Seek(t)
	s.link.Sync()
}

func TestSyncReentrancyGuard(t *testing.T) {
	primary := &fakeSurface{time: 5}
	follower := &reentrantSurface{}
	l := NewLink(primary, follower, nil)
	follower.link = l

	l.Sync()

	if len(follower.seeks) != 1 {
		t.Errorf("seeks = %v, want exactly one despite re-entry", follower.seeks)
	}
}

func TestSeekBoth(t *testing.T) {
	primary := &fakeSurface{}
	follower := &fakeSurface{}
	l := NewLink(primary, follower, nil)

	l.SeekBoth(3.5)
	if primary.time != 3.5 || follower.time != 3.5 {
		t.Errorf("times = %v / %v, want 3.5", primary.time, follower.time)
	}

	l.SeekBoth(-2)
	if primary.time != 0 || follower.time != 0 {
		t.Errorf("negative seek landed at %v / %v, want 0", primary.time, follower.time)
	}
}

func TestSetPlayingDrivesBoth(t *testing.T) {
	primary := &fakeSurface{}
	follower := &fakeSurface{}
	l := NewLink(primary, follower, nil)

	l.SetPlaying(true)
	if !primary.playing || !follower.playing {
		t.Error("surfaces did not start together")
	}
	l.SetPlaying(false)
	if primary.playing || follower.playing {
		t.Error("surfaces did not pause together")
	}
}
