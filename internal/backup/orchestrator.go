// Package backup orchestrates the upload-restore flow: local pre-flight
// validation, the phased multipart upload with banded progress, result
// reconciliation, and schema-cache invalidation on success.
package backup

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/internal/tablestore"
	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
	"github.com/cochinpm/client/pkg/models"
)

// Phase is a step of the upload-restore state machine
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseValidating Phase = "validating"
	PhaseUploading  Phase = "uploading"
	PhaseRestoring  Phase = "restoring"
	PhaseFinalizing Phase = "finalizing"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
	PhaseAuthFailed Phase = "auth_failed"
)

// MaxFileSize is the upload ceiling; a file of exactly this size is accepted
const MaxFileSize = 500 * 1024 * 1024

// extensionMIME maps the allowed extensions to their expected MIME types.
// The extension is authoritative; a mismatched MIME type only logs a note.
var extensionMIME = map[string]string{
	".zip":       "application/zip",
	".encrypted": "application/octet-stream",
}

// progress bands per phase
const (
	progressAnalyzing   = 5
	progressValidating  = 10
	progressUploadStart = 20
	progressUploadEnd   = 70
	progressRestoring   = 85
	progressFinalizing  = 95
	progressSuccess     = 100
)

// State is the externally observable orchestrator state
type State struct {
	Phase         Phase
	Progress      int
	FileName      string
	MergeStrategy string
	Result        *models.RestoreOutcome
	Err           string
}

// Orchestrator runs one upload-restore at a time
type Orchestrator struct {
	client *httpclient.Client
	tables *tablestore.Store

	mu    sync.Mutex
	state State

	// onChange, when set, observes every state transition
	onChange func(State)

	now func() time.Time
}

// New creates an idle orchestrator. onChange may be nil.
func New(client *httpclient.Client, tables *tablestore.Store, onChange func(State)) *Orchestrator {
	return &Orchestrator{
		client:   client,
		tables:   tables,
		state:    State{Phase: PhaseIdle},
		onChange: onChange,
		now:      time.Now,
	}
}

// State returns a copy of the current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ValidateFile performs the local pre-flight checks: size ceiling and
// extension allow-list (case-insensitive). A MIME type that disagrees with
// the extension is logged but does not block.
func ValidateFile(fileName string, size int64, mimeType string) error {
	if size > MaxFileSize {
		return apperrors.NewClientConstraintError(
			fmt.Sprintf("file exceeds the %d MB limit", MaxFileSize/(1024*1024)))
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	expected, ok := extensionMIME[ext]
	if !ok {
		return apperrors.NewClientConstraintError("only .zip and .encrypted files can be restored")
	}
	if mimeType != "" && mimeType != expected {
		log.Printf("backup: MIME type %q does not match extension %q (expected %q); extension wins", mimeType, ext, expected)
	}
	return nil
}

// UploadName builds the generated upload name: Upload_<basename>_<UTC now,
// compact>.
func UploadName(fileName string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return fmt.Sprintf("Upload_%s_%s", base, now.UTC().Format("20060102150405"))
}

// Abort resets the orchestrator to Idle. It is refused while the upload is
// in flight: the transport offers no cancellation guarantee there.
func (o *Orchestrator) Abort() error {
	o.mu.Lock()
	if o.state.Phase == PhaseUploading {
		o.mu.Unlock()
		return apperrors.NewClientConstraintError("cannot abort while uploading")
	}
	o.state = State{Phase: PhaseIdle}
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
	return nil
}

// Run executes one upload-restore. On success the table store is fully
// invalidated. On failure the state keeps the file name so the caller can
// retry with the same file; the draft of the operation is never lost.
func (o *Orchestrator) Run(ctx context.Context, file io.Reader, fileName string, size int64, mimeType, mergeStrategy string) (*models.RestoreOutcome, error) {
	o.begin(fileName, mergeStrategy)

	o.setPhase(PhaseAnalyzing, progressAnalyzing)
	o.setPhase(PhaseValidating, progressValidating)
	if err := ValidateFile(fileName, size, mimeType); err != nil {
		o.fail(err)
		return nil, err
	}

	o.setPhase(PhaseUploading, progressUploadStart)
	fields := map[string]string{
		"upload_name":    UploadName(fileName, o.now()),
		"merge_strategy": mergeStrategy,
	}

	var raw map[string]interface{}
	err := o.client.PostMultipart(ctx, constants.APIBackupUploadRestore, fields, "file", filepath.Base(fileName), file, size,
		func(sent, total int64) {
			o.setProgress(uploadProgress(sent, total))
		}, &raw)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.setPhase(PhaseRestoring, progressRestoring)
	o.setPhase(PhaseFinalizing, progressFinalizing)

	outcome := models.ParseRestoreOutcome(raw)
	if !outcome.Success {
		msg := outcome.Message
		if msg == "" {
			msg = "restore rejected by the server"
		}
		err := fmt.Errorf("restore failed: %s", msg)
		o.fail(err)
		return outcome, err
	}

	// Schemas may have changed wholesale; every cached table is suspect
	o.tables.InvalidateAll()

	o.mu.Lock()
	o.state.Phase = PhaseSuccess
	o.state.Progress = progressSuccess
	o.state.Result = outcome
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
	return outcome, nil
}

// uploadProgress scales byte progress into the uploading band
func uploadProgress(sent, total int64) int {
	if total <= 0 {
		return progressUploadStart
	}
	frac := float64(sent) / float64(total)
	if frac > 1 {
		frac = 1
	}
	return progressUploadStart + int(frac*float64(progressUploadEnd-progressUploadStart))
}

func (o *Orchestrator) begin(fileName, mergeStrategy string) {
	o.mu.Lock()
	o.state = State{
		Phase:         PhaseIdle,
		FileName:      fileName,
		MergeStrategy: mergeStrategy,
	}
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
}

func (o *Orchestrator) setPhase(phase Phase, progress int) {
	o.mu.Lock()
	o.state.Phase = phase
	if progress > o.state.Progress {
		o.state.Progress = progress
	}
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
}

// setProgress never decreases and never reaches 100 before Success
func (o *Orchestrator) setProgress(progress int) {
	o.mu.Lock()
	if progress > 99 {
		progress = 99
	}
	if progress > o.state.Progress {
		o.state.Progress = progress
	}
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
}

func (o *Orchestrator) fail(err error) {
	phase := PhaseFailed
	if apperrors.IsAuthExpired(err) {
		phase = PhaseAuthFailed
	}
	o.mu.Lock()
	o.state.Phase = phase
	o.state.Err = err.Error()
	snapshot := o.state
	o.mu.Unlock()
	o.notify(snapshot)
}

func (o *Orchestrator) notify(s State) {
	if o.onChange != nil {
		o.onChange(s)
	}
}
