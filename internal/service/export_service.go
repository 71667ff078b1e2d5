package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

const exportJobID = "export-all"

// ExportService writes snapshots of every document to a directory, either on
// demand or on a cron schedule.
type ExportService struct {
	docs      *DocumentService
	dir       string
	emitter   EventEmitter
	jobs      jobGuard
	cronSched *cron.Cron
	log       *slog.Logger
}

func NewExportService(docs *DocumentService, dir string, emitter EventEmitter) *ExportService {
	if emitter == nil {
		emitter = LogEmitter{}
	}
	return &ExportService{
		docs:    docs,
		dir:     dir,
		emitter: emitter,
		log:     slog.Default().With("component", "export"),
	}
}

// ExportAll writes <dir>/<id>.json for every document and returns how many
// were written. A run that starts while another is in progress fails fast.
func (s *ExportService) ExportAll(ctx context.Context) (int, error) {
	release, err := s.jobs.Begin(exportJobID)
	if err != nil {
		return 0, err
	}
	defer release()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return 0, fmt.Errorf("create export directory: %w", err)
	}
	docs, err := s.docs.List()
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	written := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := s.docs.encodeDocument(&docs[i])
		if err != nil {
			exportTotal.WithLabelValues(resultError).Inc()
			s.log.WarnContext(ctx, "export failed", "id", docs[i].ID, "error", err)
			continue
		}
		if err := writeFileAtomic(filepath.Join(s.dir, docs[i].ID+".json"), data); err != nil {
			exportTotal.WithLabelValues(resultError).Inc()
			return written, fmt.Errorf("export %s: %w", docs[i].ID, err)
		}
		exportTotal.WithLabelValues(resultApplied).Inc()
		written++
	}
	s.emitter.Emit(ctx, EventDocumentsExport, map[string]any{"dir": s.dir, "count": written})
	s.log.InfoContext(ctx, "documents exported", "dir", s.dir, "count", written)
	return written, nil
}

// Start schedules ExportAll with a standard five-field cron expression.
func (s *ExportService) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.ExportAll(ctx); err != nil {
			s.log.Warn("scheduled export failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("export schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cronSched = c
	s.log.Info("export scheduled", "schedule", schedule, "dir", s.dir)
	return nil
}

// Stop halts the scheduler and waits for a running export to finish or ctx
// to be cancelled.
func (s *ExportService) Stop(ctx context.Context) {
	if s.cronSched != nil {
		select {
		case <-s.cronSched.Stop().Done():
		case <-ctx.Done():
		}
		s.cronSched = nil
	}
	if err := s.jobs.Wait(ctx); err != nil {
		s.log.Warn("export still running at shutdown", "error", err)
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
