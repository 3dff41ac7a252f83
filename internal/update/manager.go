package update

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tdlgui/tdl-gui/internal/model"
	"github.com/tdlgui/tdl-gui/internal/platform"
)

// GitHub release endpoint for tdl
const DefaultReleaseAPIURL = "https://api.github.com/repos/iyear/tdl/releases/latest"

// Download tuning constants
const (
	// UpdateSourceID keys the single progress stream of an update job
	UpdateSourceID = "tdl-update"

	// RequestTimeout bounds the release metadata request
	RequestTimeout = 30 * time.Second

	// CopyChunkSize is the download copy buffer size
	CopyChunkSize = 32 * 1024

	// ProgressInterval throttles progress notifications during download
	ProgressInterval = 200 * time.Millisecond
)

// Sentinel errors surfaced to callers
var (
	// ErrNoUpdate means the installed version is already current
	ErrNoUpdate = errors.New("no update available")

	// ErrUpdateFailed marks any download/verify/swap failure. The
	// previously installed binary is always left untouched.
	ErrUpdateFailed = errors.New("update failed")
)

var versionRe = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

// UpdateInfo describes one downloadable release
type UpdateInfo struct {
	Version  string
	AssetURL string
	Asset    string
	Size     int64
}

// release mirrors the fields we need from the GitHub API response
type release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name        string `json:"name"`
		Size        int64  `json:"size"`
		DownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Manager handles the tdl update lifecycle: release check, download,
// verification and the atomic binary swap
type Manager struct {
	client         *http.Client
	apiURL         string
	binaryPath     string
	currentVersion string

	// swapFn is the final replace step; injectable for tests
	swapFn func(tempPath, target string) error
}

// NewManager creates an update manager for the binary at binaryPath.
// currentVersion is the installed tdl version tag (e.g. "v1.2.3"); empty
// means unknown, in which case any release counts as an update.
func NewManager(binaryPath, currentVersion string) *Manager {
	return &Manager{
		client:         &http.Client{Timeout: RequestTimeout},
		apiURL:         DefaultReleaseAPIURL,
		binaryPath:     binaryPath,
		currentVersion: currentVersion,
		swapFn:         platform.ReplaceFile,
	}
}

// SetReleaseAPIURL overrides the release endpoint
func (m *Manager) SetReleaseAPIURL(url string) {
	m.apiURL = url
}

// SetHTTPClient overrides the HTTP client
func (m *Manager) SetHTTPClient(client *http.Client) {
	m.client = client
}

// CheckForUpdate queries the release endpoint and returns the newer
// release, or ErrNoUpdate when the installed version is current
func (m *Manager) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create release request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release check failed: unexpected status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release response: %w", err)
	}

	if !isNewer(rel.TagName, m.currentVersion) {
		return nil, ErrNoUpdate
	}

	assetName := AssetName()
	for _, asset := range rel.Assets {
		if asset.Name == assetName {
			return &UpdateInfo{
				Version:  rel.TagName,
				AssetURL: asset.DownloadURL,
				Asset:    asset.Name,
				Size:     asset.Size,
			}, nil
		}
	}

	return nil, fmt.Errorf("release %s has no asset named %s", rel.TagName, assetName)
}

// AssetName returns the release asset name for this platform, following
// tdl's naming scheme
func AssetName() string {
	osName := map[string]string{
		platform.OSWindows: "Windows",
		platform.OSDarwin:  "macOS",
		platform.OSLinux:   "Linux",
	}[runtime.GOOS]
	if osName == "" {
		osName = runtime.GOOS
	}

	arch := "64bit"
	switch runtime.GOARCH {
	case "386":
		arch = "32bit"
	case "arm64":
		arch = "arm64"
	}

	ext := ".tar.gz"
	if runtime.GOOS == platform.OSWindows {
		ext = ".zip"
	}
	return fmt.Sprintf("tdl_%s_%s%s", osName, arch, ext)
}

// Job is a single-source update operation speaking the same notification
// contract as runner jobs: progress notifications followed by exactly one
// terminal Finished notification.
type Job struct {
	ID string

	notifications chan model.Notification
	cancel        context.CancelFunc
	cancelOnce    sync.Once
	done          chan struct{}

	mu      sync.Mutex
	outcome model.Outcome
}

// Notifications returns the single-consumer notification channel; it is
// closed after the terminal Finished notification
func (j *Job) Notifications() <-chan model.Notification {
	return j.notifications
}

// Cancel aborts the update. Idempotent and safe after completion; an
// interrupted update never touches the installed binary.
func (j *Job) Cancel() {
	j.cancelOnce.Do(j.cancel)
}

// Wait blocks until the update resolves and returns its outcome
func (j *Job) Wait() model.Outcome {
	<-j.done

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// PerformUpdate downloads the release asset to a temp file next to the
// installed binary, verifies it, and swaps it in atomically. Any failure
// leaves the previously installed binary byte-for-byte untouched.
func (m *Manager) PerformUpdate(ctx context.Context, info *UpdateInfo) *Job {
	ctx, cancel := context.WithCancel(ctx)

	job := &Job{
		ID:            generateUpdateJobID(),
		notifications: make(chan model.Notification, 64),
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	go func() {
		defer cancel()
		err := m.runUpdate(ctx, info, job)

		outcome := model.OutcomeSucceeded
		if err != nil {
			if errors.Is(err, context.Canceled) {
				outcome = model.OutcomeCancelled
			} else {
				outcome = model.OutcomeFailed
				wrapped := fmt.Errorf("%w: %v", ErrUpdateFailed, err)
				log.Printf("update job %s: %v", job.ID, wrapped)
				job.notifications <- model.Notification{
					Kind:     model.NoteError,
					JobID:    job.ID,
					SourceID: UpdateSourceID,
					Message:  wrapped.Error(),
				}
			}
		}

		job.mu.Lock()
		job.outcome = outcome
		job.mu.Unlock()

		var failures []model.SourceFailure
		if outcome == model.OutcomeFailed {
			failures = []model.SourceFailure{{
				SourceID:   UpdateSourceID,
				State:      model.WorkerFailed,
				ExitCode:   -1,
				Diagnostic: err.Error(),
			}}
		}
		job.notifications <- model.Notification{
			Kind:     model.NoteFinished,
			JobID:    job.ID,
			Outcome:  outcome,
			Failures: failures,
		}
		close(job.notifications)
		close(job.done)
	}()

	return job
}

// runUpdate performs download, verify and swap
func (m *Manager) runUpdate(ctx context.Context, info *UpdateInfo, job *Job) error {
	installDir := filepath.Dir(m.binaryPath)
	if err := platform.CreateDirectoryIfNotExists(installDir); err != nil {
		return err
	}

	// The temp file lives in the install directory so the final rename
	// stays on one filesystem
	tempPath := filepath.Join(installDir, fmt.Sprintf(".%s.download-%d", filepath.Base(m.binaryPath), os.Getpid()))
	defer os.Remove(tempPath)

	if err := m.download(ctx, info, tempPath, job); err != nil {
		return err
	}

	stagedPath := tempPath
	switch {
	case strings.HasSuffix(info.Asset, ".zip"):
		extracted, err := extractFromZip(tempPath, installDir)
		if err != nil {
			return err
		}
		defer os.Remove(extracted)
		stagedPath = extracted
	case strings.HasSuffix(info.Asset, ".tar.gz"):
		extracted, err := extractFromTarGz(tempPath, installDir)
		if err != nil {
			return err
		}
		defer os.Remove(extracted)
		stagedPath = extracted
	}

	if err := verifyStaged(stagedPath, info, stagedPath == tempPath); err != nil {
		return err
	}

	return m.swapFn(stagedPath, m.binaryPath)
}

// download streams the asset to tempPath, relaying progress snapshots
func (m *Manager) download(ctx context.Context, info *UpdateInfo, tempPath string, job *Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.AssetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}
	if total <= 0 {
		total = model.UnknownTotal
	}

	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, platform.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	var done int64
	var seq uint64
	started := time.Now()
	lastNote := time.Time{}
	buf := make([]byte, CopyChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write temp file: %w", writeErr)
			}
			done += int64(n)

			if time.Since(lastNote) >= ProgressInterval {
				lastNote = time.Now()
				seq++
				job.notifications <- progressNote(job.ID, snapshot(seq, done, total, started))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// A cancelled context surfaces as a read error on the body
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("download interrupted: %w", readErr)
		}
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to flush temp file: %w", err)
	}

	if info.Size > 0 && done != info.Size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", info.Size, done)
	}
	if done == 0 {
		return errors.New("downloaded asset is empty")
	}

	seq++
	final := snapshot(seq, done, total, started)
	final.Status = model.WorkerSucceeded
	final.Percent = 100
	job.notifications <- progressNote(job.ID, final)

	return nil
}

// snapshot builds a per-update progress snapshot
func snapshot(seq uint64, done, total int64, started time.Time) model.ProgressSnapshot {
	snap := model.ProgressSnapshot{
		SourceID:   UpdateSourceID,
		Seq:        seq,
		BytesDone:  done,
		BytesTotal: total,
		ETASec:     model.UnknownETA,
		Status:     model.WorkerRunning,
		At:         time.Now(),
	}

	elapsed := time.Since(started).Seconds()
	if elapsed > 0 {
		snap.Speed = float64(done) / elapsed
	}
	if total > 0 {
		snap.Percent = float64(done) / float64(total) * 100
		if snap.Speed > 0 && total > done {
			snap.ETASec = int(float64(total-done) / snap.Speed)
		}
	}
	return snap
}

func progressNote(jobID string, snap model.ProgressSnapshot) model.Notification {
	return model.Notification{
		Kind:     model.NoteProgress,
		JobID:    jobID,
		SourceID: UpdateSourceID,
		Snapshot: snap,
		Aggregate: model.AggregateSnapshot{
			BytesDone:  snap.BytesDone,
			BytesTotal: snap.BytesTotal,
			TotalKnown: snap.BytesTotal != model.UnknownTotal,
			Speed:      snap.Speed,
			ETASec:     snap.ETASec,
			Percent:    snap.Percent,
			Sources:    1,
		},
	}
}

// verifyStaged checks the staged file before the swap. Size verification
// only applies when the staged file is the raw asset.
func verifyStaged(path string, info *UpdateInfo, isRawAsset bool) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("staged binary missing: %w", err)
	}
	if stat.Size() == 0 {
		return errors.New("staged binary is empty")
	}
	if isRawAsset && info.Size > 0 && stat.Size() != info.Size {
		return fmt.Errorf("staged binary size mismatch: expected %d, got %d", info.Size, stat.Size())
	}
	return nil
}

// extractFromZip pulls the tdl executable out of a downloaded zip archive
// into dir and returns its path
func extractFromZip(zipPath, dir string) (string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	wanted := platform.ExecutableName()
	for _, file := range reader.File {
		if filepath.Base(file.Name) != wanted {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to read %s from archive: %w", wanted, err)
		}
		defer src.Close()

		return stageExtracted(src, dir, wanted)
	}

	return "", fmt.Errorf("archive does not contain %s", wanted)
}

// extractFromTarGz pulls the tdl executable out of a downloaded tar.gz
// archive into dir and returns its path
func extractFromTarGz(archivePath, dir string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}
	defer gz.Close()

	wanted := platform.ExecutableName()
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != wanted {
			continue
		}
		return stageExtracted(tr, dir, wanted)
	}

	return "", fmt.Errorf("archive does not contain %s", wanted)
}

// stageExtracted writes the executable stream to a hidden staging file in dir
func stageExtracted(src io.Reader, dir, name string) (string, error) {
	outPath := filepath.Join(dir, fmt.Sprintf(".%s.extracted-%d", name, os.Getpid()))
	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, platform.DefaultExePermissions)
	if err != nil {
		return "", fmt.Errorf("failed to create extracted file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return outPath, nil
}

// DetectVersion runs the installed binary's version command and extracts
// its version tag
func DetectVersion(ctx context.Context, binaryPath string) (string, error) {
	cmd := exec.CommandContext(ctx, binaryPath, "version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s version: %w", binaryPath, err)
	}

	match := versionRe.FindString(string(output))
	if match == "" {
		return "", fmt.Errorf("no version found in output of %s version", binaryPath)
	}
	if !strings.HasPrefix(match, "v") {
		match = "v" + match
	}
	return match, nil
}

// isNewer compares two version tags numerically. An unknown current
// version always counts as older.
func isNewer(candidate, current string) bool {
	cand := versionParts(candidate)
	if cand == nil {
		return false
	}
	curr := versionParts(current)
	if curr == nil {
		return true
	}

	for i := 0; i < 3; i++ {
		if cand[i] != curr[i] {
			return cand[i] > curr[i]
		}
	}
	return false
}

// versionParts extracts the numeric components of a version tag
func versionParts(tag string) []int {
	match := versionRe.FindStringSubmatch(tag)
	if match == nil {
		return nil
	}

	parts := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return nil
		}
		parts[i] = n
	}
	return parts
}

// generateUpdateJobID generates a unique update job ID
func generateUpdateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("update-%d", time.Now().UnixNano())
	}
	return "update-" + id.String()
}
