package watch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"arxiv_digest/config"
	"arxiv_digest/digest"
	"arxiv_digest/internal/jobs"
)

// Watcher monitors SOURCE_DIR for new daily JSON files and enqueues a
// consolidation run when one appears.
type Watcher struct {
	cfg    config.Config
	runner *jobs.Runner
}

func New(cfg config.Config, runner *jobs.Runner) *Watcher {
	return &Watcher{cfg: cfg, runner: runner}
}

func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher {
		log.Info("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Rename) != 0 && isDailySource(evt.Name) {
					log.Infof("new daily source %s, queueing consolidation", filepath.Base(evt.Name))
					if _, err := w.runner.Enqueue(jobs.OpGenerate, nil); err != nil {
						log.Warnf("enqueue generate: %v", err)
					}
				}
			case err := <-watcher.Errors:
				log.Warnf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(w.cfg.SourceDir)
}

func isDailySource(path string) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		return false
	}
	_, ok := digest.ParseSourceDate(name)
	return ok
}
