package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"bookvoice/internal/config"
	"bookvoice/internal/fileutil"
	"bookvoice/internal/logging"
	"bookvoice/internal/media"
	"bookvoice/internal/services"
	"bookvoice/internal/staging"
)

const (
	lockFileName   = ".bookvoice.lock"
	lockRetryDelay = 100 * time.Millisecond
)

// RenderJob is the input of a video render for one batch.
type RenderJob struct {
	ChunkID      string
	Captions     []CaptionBlock
	AudioPath    string
	SubtitlePath string
	OutputPath   string
	Duration     time.Duration
}

// Renderer produces a video for a batch and returns its path.
type Renderer interface {
	RenderAndEncode(ctx context.Context, job RenderJob) (string, error)
}

// Options configures an Exporter.
type Options struct {
	OutputDir   string
	StagingDir  string
	BaseName    string
	SampleRate  int
	LockTimeout time.Duration
}

// Exporter writes and commits batch artifacts.
type Exporter struct {
	opts     Options
	renderer Renderer
	logger   *slog.Logger
}

// NewExporter constructs an exporter. renderer may be nil when video export
// is disabled.
func NewExporter(opts Options, renderer Renderer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 30 * time.Second
	}
	return &Exporter{opts: opts, renderer: renderer, logger: logging.NewComponentLogger(logger, "export")}
}

// Export stages every requested artifact and commits the batch.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	if len(req.WrittenBlocks) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "export", "validate", "empty batch", nil)
	}
	if req.ChunkID == "" {
		return Result{}, services.Wrap(services.ErrValidation, "export", "validate", "missing chunk id", nil)
	}
	logger := e.logger.With(
		logging.String(logging.FieldChunkID, req.ChunkID),
		logging.String(logging.FieldRange, req.RangeLabel()),
	)

	stageDir := staging.ChunkDir(e.opts.StagingDir, req.ChunkID)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "export", "stage", "create staging directory", err)
	}
	defer os.RemoveAll(stageDir)

	names, err := e.stage(ctx, stageDir, req)
	if err != nil {
		logging.WarnWithContext(logger, "batch staging failed; staged files discarded", "export_stage_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "batch not written"),
		)
		return Result{}, err
	}

	artifacts, err := e.commit(ctx, req.ChunkID, stageDir, names)
	if err != nil {
		logging.WarnWithContext(logger, "batch commit failed; output rolled back", "export_commit_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "batch not written"),
			logging.String(logging.FieldErrorHint, "check output_dir permissions and free space"),
		)
		return Result{}, err
	}

	logger.Info("batch exported",
		logging.Int("artifacts", len(artifacts)),
		logging.String(logging.FieldEventType, "export_committed"),
	)
	return Result{
		ChunkID:       req.ChunkID,
		RangeLabel:    req.RangeLabel(),
		StartSentence: req.StartSentence,
		EndSentence:   req.EndSentence,
		Artifacts:     artifacts,
		CommittedAt:   time.Now().UTC(),
	}, nil
}

func (e *Exporter) name(req Request, ext string) string {
	return ArtifactName(req.StartSentence, req.EndSentence, e.opts.BaseName, ext)
}

// stage writes every artifact into dir and returns their file names.
func (e *Exporter) stage(ctx context.Context, dir string, req Request) ([]string, error) {
	var names []string
	write := func(ext string, fn func(path string) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := e.name(req, ext)
		if err := fn(filepath.Join(dir, name)); err != nil {
			return services.Wrap(services.ErrTransient, "export", "write "+ext, "", err)
		}
		names = append(names, name)
		return nil
	}
	writeReq := func(fn func(string, Request) error) func(string) error {
		return func(path string) error { return fn(path, req) }
	}

	if req.Flags.Has(config.FormatText) {
		if err := write("txt", writeReq(writeText)); err != nil {
			return nil, err
		}
	}
	needSRT := req.Flags.Has(config.FormatSRT) || req.Flags.Video
	if needSRT {
		if err := write("srt", writeReq(writeSRT)); err != nil {
			return nil, err
		}
	}
	if req.Flags.Has(config.FormatVTT) {
		if err := write("vtt", writeReq(writeVTT)); err != nil {
			return nil, err
		}
	}
	if req.Flags.Has(config.FormatHighlights) {
		if err := write("highlights.json", writeReq(writeHighlights)); err != nil {
			return nil, err
		}
	}
	needWAV := req.Flags.Has(config.FormatAudio) || req.Flags.Video
	if needWAV {
		combined := req.Audio[RoleCombined]
		if err := write("wav", func(path string) error { return writeClip(path, combined, e.opts.SampleRate) }); err != nil {
			return nil, err
		}
	}
	if req.Flags.SplitAudio {
		for _, role := range []string{media.RoleOriginal, media.RoleTranslation} {
			clip, ok := req.Audio[role]
			if !ok || clip.Empty() {
				continue
			}
			if err := write(role+".wav", func(path string) error { return writeClip(path, clip, e.opts.SampleRate) }); err != nil {
				return nil, err
			}
		}
	}
	if req.Flags.Video {
		if e.renderer == nil {
			return nil, services.Wrap(services.ErrConfiguration, "export", "render", "video requested without a renderer", nil)
		}
		outName := e.name(req, "mp4")
		job := RenderJob{
			ChunkID:      req.ChunkID,
			Captions:     req.CaptionBlocks,
			AudioPath:    filepath.Join(dir, e.name(req, "wav")),
			SubtitlePath: filepath.Join(dir, e.name(req, "srt")),
			OutputPath:   filepath.Join(dir, outName),
			Duration:     req.Audio[RoleCombined].Duration(),
		}
		path, err := e.renderer.RenderAndEncode(ctx, job)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "export", "render", "", err)
		}
		if filepath.Dir(path) != dir {
			return nil, services.Wrap(services.ErrExternalTool, "export", "render", fmt.Sprintf("renderer wrote outside staging: %s", path), nil)
		}
		names = append(names, filepath.Base(path))
		// Intermediate inputs that were not requested on their own.
		if !req.Flags.Has(config.FormatSRT) {
			names = remove(names, e.name(req, "srt"))
		}
		if !req.Flags.Has(config.FormatAudio) {
			names = remove(names, e.name(req, "wav"))
		}
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "export", "stage", "no artifacts requested", nil)
	}
	sort.Strings(names)
	return names, nil
}

func remove(names []string, target string) []string {
	out := names[:0]
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

type backup struct {
	saved, original string
}

// commit moves staged files into the output directory while holding the
// output lock. Existing files with the same name are replaced; on failure
// they are restored and newly committed files are removed.
func (e *Exporter) commit(ctx context.Context, chunkID, stageDir string, names []string) ([]string, error) {
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "commit", "create output directory", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, e.opts.LockTimeout)
	defer cancel()
	lock := flock.New(filepath.Join(e.opts.OutputDir, lockFileName))
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, services.Wrap(services.ErrTimeout, "export", "commit", "acquire output lock", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	incoming := staging.IncomingDir(e.opts.OutputDir, chunkID)
	if err := os.MkdirAll(incoming, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "commit", "create incoming directory", err)
	}
	defer os.RemoveAll(incoming)

	for _, name := range names {
		if err := fileutil.MoveFile(filepath.Join(stageDir, name), filepath.Join(incoming, name)); err != nil {
			return nil, services.Wrap(services.ErrTransient, "export", "commit", "move staged artifact", err)
		}
	}

	previous := filepath.Join(incoming, ".previous")
	var (
		committed []string
		backups   []backup
	)
	rollback := func() {
		for _, path := range committed {
			_ = os.Remove(path)
		}
		for _, b := range backups {
			_ = os.Rename(b.saved, b.original)
		}
	}

	for _, name := range names {
		dest := filepath.Join(e.opts.OutputDir, name)
		if info, err := os.Lstat(dest); err == nil {
			if info.IsDir() {
				rollback()
				return nil, services.Wrap(services.ErrValidation, "export", "commit", fmt.Sprintf("destination %s is a directory", dest), nil)
			}
			if err := os.MkdirAll(previous, 0o755); err != nil {
				rollback()
				return nil, services.Wrap(services.ErrTransient, "export", "commit", "create backup directory", err)
			}
			saved := filepath.Join(previous, name)
			if err := os.Rename(dest, saved); err != nil {
				rollback()
				return nil, services.Wrap(services.ErrTransient, "export", "commit", "back up existing artifact", err)
			}
			backups = append(backups, backup{saved: saved, original: dest})
		}
		if err := os.Rename(filepath.Join(incoming, name), dest); err != nil {
			rollback()
			return nil, services.Wrap(services.ErrTransient, "export", "commit", "publish artifact", err)
		}
		committed = append(committed, dest)
	}
	return committed, nil
}
