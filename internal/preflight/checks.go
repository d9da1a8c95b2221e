package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"bookvoice/internal/config"
	"bookvoice/internal/deps"
	"bookvoice/internal/services/translate"
)

// MinFreeBytes is the free space below which a directory check fails.
const MinFreeBytes uint64 = 512 * 1024 * 1024

// CheckLLM verifies that the translation API is reachable and the key is
// valid by translating one word with a single attempt.
func CheckLLM(ctx context.Context, name string, cfg config.Translation) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := translate.NewLLM(translate.LLMConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, translate.WithRetryMaxAttempts(1))

	if _, err := client.Translate(checkCtx, "Hello.", cfg.SourceLanguage, cfg.TargetLanguage); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize) //nolint:gosec
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// CheckSystemDeps evaluates the external binaries the configured backends
// need. Both the run command and the preflight command use it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	var requirements []deps.Requirement
	if cfg.TTSKind() == config.TTSCommand {
		requirements = append(requirements, deps.Requirement{
			Name:        "TTS engine",
			Command:     cfg.TTS.Command,
			Description: "Required for speech synthesis",
		})
	}
	if cfg.Render.Enabled {
		requirements = append(requirements,
			deps.Requirement{
				Name:        "FFmpeg",
				Command:     deps.Resolve(cfg.Render.FFmpeg, "ffmpeg"),
				Description: "Required for video export",
			},
			deps.Requirement{
				Name:        "FFprobe",
				Command:     deps.Resolve(cfg.Render.FFprobe, "ffprobe"),
				Description: "Required for video validation",
			},
		)
	}
	return deps.CheckBinaries(requirements)
}

// summarizeLLMError produces a human-readable summary for LLM check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (LLM API unreachable)"
	}
	return err.Error()
}
