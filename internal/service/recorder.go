package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
)

// DeploymentRepo persists deployment records (gorm or in-memory).
type DeploymentRepo interface {
	Insert(ctx context.Context, record *model.DeploymentRecord) error
	List(ctx context.Context, network string, limit int) ([]*model.DeploymentRecord, error)
}

// Recorder writes every deployed contract to the registry and to a daily
// JSONL file. Writes happen on a background goroutine; Close drains it.
type Recorder struct {
	runID   string
	logChan chan *model.DeploymentRecord
	logFile *os.File
	repo    DeploymentRepo
	done    chan struct{}
}

// NewRecorder starts a recorder. logDir may be empty to skip the JSONL file,
// repo may be nil to skip the registry.
func NewRecorder(logDir string, repo DeploymentRepo) (*Recorder, error) {
	return newRecorder(logDir, repo, recordBuffer)
}

const recordBuffer = 256

func newRecorder(logDir string, repo DeploymentRepo, buffer int) (*Recorder, error) {
	r := &Recorder{
		runID:   uuid.NewString(),
		logChan: make(chan *model.DeploymentRecord, buffer),
		repo:    repo,
		done:    make(chan struct{}),
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		// 按日分文件
		filename := filepath.Join(logDir, "deployments-"+time.Now().Format("2006-01-02")+".jsonl")
		f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		r.logFile = f
	}

	go r.process()
	return r, nil
}

func (r *Recorder) RunID() string {
	return r.runID
}

// Record queues a record, waiting for buffer space until ctx ends.
// ID, RunID and CreatedAt are filled in when empty.
func (r *Recorder) Record(ctx context.Context, record *model.DeploymentRecord) error {
	if r == nil || record == nil {
		return nil
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RunID == "" {
		record.RunID = r.runID
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	select {
	case r.logChan <- record:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s record: %w", record.Contract, ctx.Err())
	}
}

func (r *Recorder) List(ctx context.Context, network string, limit int) ([]*model.DeploymentRecord, error) {
	if r.repo == nil {
		return nil, nil
	}
	return r.repo.List(ctx, network, limit)
}

func (r *Recorder) process() {
	defer close(r.done)
	var encoder *json.Encoder
	if r.logFile != nil {
		encoder = json.NewEncoder(r.logFile)
	}
	for record := range r.logChan {
		if r.repo != nil {
			if err := r.repo.Insert(context.Background(), record); err != nil {
				logger.Error("Failed to store deployment record", "contract", record.Contract, "error", err)
			}
		}
		if encoder != nil {
			if err := encoder.Encode(record); err != nil {
				logger.Error("Failed to write deployment record", "error", err)
			}
		}
	}
}

// Close flushes pending records.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.logChan)
	<-r.done
	if r.logFile != nil {
		r.logFile.Close()
	}
}
