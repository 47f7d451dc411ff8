// Package export renders a layout to a video file server-side: frames are
// composited in parallel, written as PNGs, and handed to ffmpeg.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"

	"github.com/reframe/reframe/backend-go/internal/compositor"
	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/typeid"
)

var (
	ErrJobNotFound    = errors.New("export job not found")
	ErrLowMemory      = errors.New("not enough free memory for export")
	ErrInvalidRequest = errors.New("invalid export request")
)

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

type Step struct {
	Name   string    `json:"name"`
	Status JobStatus `json:"status"`
}

type Job struct {
	ID         string    `json:"id"`
	LayoutID   string    `json:"layoutId"`
	Format     string    `json:"format"`
	FPS        int       `json:"fps"`
	Duration   float64   `json:"durationSec"`
	Status     JobStatus `json:"status"`
	Steps      []Step    `json:"steps"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FrameProvider supplies per-timestamp pixel sources for the renderer. A nil
// provider renders placeholders, which still exercises the full pipeline.
type FrameProvider interface {
	At(t float64) compositor.FrameSource
}

type Request struct {
	LayoutID string  `json:"layoutId"`
	Format   string  `json:"format"`
	FPS      int     `json:"fps"`
	Duration float64 `json:"durationSec"`
}

// Manager runs export jobs and tracks their state in memory.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	ffmpegPath string
	outDir     string
	workers    int
	minFreeMem uint64
	renderer   *compositor.Renderer
	frames     FrameProvider
}

func NewManager(ffmpegPath, outDir string, workers int, minFreeMem uint64, frames FrameProvider) *Manager {
	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		slog.Error("create export dir", "error", err, "dir", outDir)
	}
	return &Manager{
		jobs:       make(map[string]*Job),
		ffmpegPath: ffmpegPath,
		outDir:     outDir,
		workers:    workers,
		minFreeMem: minFreeMem,
		renderer:   compositor.New(compositor.Options{}),
		frames:     frames,
	}
}

// Start validates the request and launches the job in the background.
func (m *Manager) Start(doc *document.LayoutDefinition, req Request) (*Job, error) {
	if req.Format != "mp4" && req.Format != "gif" && req.Format != "webm" {
		return nil, fmt.Errorf("%w: format must be mp4, gif, or webm", ErrInvalidRequest)
	}
	if req.FPS <= 0 || req.FPS > 120 {
		req.FPS = 24
	}
	if req.Duration <= 0 || req.Duration > 600 {
		return nil, fmt.Errorf("%w: durationSec must be in (0, 600]", ErrInvalidRequest)
	}

	if err := m.checkMemory(); err != nil {
		return nil, err
	}

	job := &Job{
		ID:       typeid.NewExportID(),
		LayoutID: req.LayoutID,
		Format:   req.Format,
		FPS:      req.FPS,
		Duration: req.Duration,
		Status:   StatusPending,
		Steps: []Step{
			{Name: "render", Status: StatusPending},
			{Name: "encode", Status: StatusPending},
		},
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job, doc.Clone())

	return job, nil
}

// Get returns a snapshot of the job state.
func (m *Manager) Get(jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	cp.Steps = append([]Step(nil), job.Steps...)
	return &cp, nil
}

func (m *Manager) checkMemory() error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		slog.Warn("read memory stats", "error", err)
		return nil
	}
	if vm.Available < m.minFreeMem {
		slog.Warn("export rejected for low memory", "available", vm.Available, "required", m.minFreeMem)
		return ErrLowMemory
	}
	return nil
}

func (m *Manager) run(job *Job, doc *document.LayoutDefinition) {
	m.setStatus(job.ID, StatusRunning)

	tempDir, err := os.MkdirTemp("", "reframe-export-*")
	if err != nil {
		m.fail(job.ID, fmt.Errorf("create temp dir: %w", err))
		return
	}
	defer os.RemoveAll(tempDir)

	m.setStep(job.ID, "render", StatusRunning)
	frameCount := int(job.Duration * float64(job.FPS))
	if frameCount < 1 {
		frameCount = 1
	}

	if err := m.renderFrames(doc, job, tempDir, frameCount); err != nil {
		m.setStep(job.ID, "render", StatusFailed)
		m.fail(job.ID, err)
		return
	}
	m.setStep(job.ID, "render", StatusCompleted)

	m.setStep(job.ID, "encode", StatusRunning)
	outputPath := filepath.Join(m.outDir, job.ID+"."+job.Format)
	if err := m.encode(job, tempDir, outputPath); err != nil {
		m.setStep(job.ID, "encode", StatusFailed)
		m.fail(job.ID, err)
		return
	}
	m.setStep(job.ID, "encode", StatusCompleted)

	m.mu.Lock()
	if j, ok := m.jobs[job.ID]; ok {
		j.Status = StatusCompleted
		j.OutputPath = outputPath
	}
	m.mu.Unlock()

	slog.Info("export complete", "job", job.ID, "format", job.Format, "frames", frameCount)
}

func (m *Manager) renderFrames(doc *document.LayoutDefinition, job *Job, tempDir string, frameCount int) error {
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(m.workers)

	for i := 0; i < frameCount; i++ {
		g.Go(func() error {
			t := float64(i) / float64(job.FPS)

			var src compositor.FrameSource
			if m.frames != nil {
				src = m.frames.At(t)
			}
			img := m.renderer.Render(doc, src)

			path := filepath.Join(tempDir, fmt.Sprintf("frame_%04d.png", i))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create frame %d: %w", i, err)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return fmt.Errorf("encode frame %d: %w", i, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (m *Manager) encode(job *Job, tempDir, outputPath string) error {
	framePattern := filepath.Join(tempDir, "frame_%04d.png")
	fps := strconv.Itoa(job.FPS)

	switch job.Format {
	case "mp4":
		return m.runFfmpeg(
			"-framerate", fps,
			"-i", framePattern,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			outputPath,
		)

	case "gif":
		// Two-pass GIF: generate palette then apply
		palettePath := filepath.Join(tempDir, "palette.png")
		if err := m.runFfmpeg(
			"-framerate", fps,
			"-i", framePattern,
			"-vf", "palettegen=stats_mode=diff",
			palettePath,
		); err != nil {
			return err
		}
		return m.runFfmpeg(
			"-framerate", fps,
			"-i", framePattern,
			"-i", palettePath,
			"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
			outputPath,
		)

	case "webm":
		return m.runFfmpeg(
			"-framerate", fps,
			"-i", framePattern,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
			outputPath,
		)
	}
	return fmt.Errorf("unsupported format: %s", job.Format)
}

func (m *Manager) runFfmpeg(args ...string) error {
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.Command(m.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}

func (m *Manager) setStatus(jobID string, status JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.Status = status
	}
}

func (m *Manager) setStep(jobID, name string, status JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return
	}
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			j.Steps[i].Status = status
		}
	}
}

func (m *Manager) fail(jobID string, err error) {
	slog.Error("export failed", "job", jobID, "error", err)
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.Status = StatusFailed
		j.Error = err.Error()
	}
}
