package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// watch replaces the current file watch with one on path. It is a no-op when
// watching is disabled or path is already watched.
func (r *REPL) watch(ctx context.Context, path string) {
	if r.newWatcher == nil {
		return
	}

	r.mu.Lock()
	same := r.watchTarget == path
	r.mu.Unlock()
	if same {
		return
	}

	r.unwatch()

	w, err := r.newWatcher()
	if err != nil {
		r.fail(fmt.Sprintf("watch disabled: %v", err))
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := w.Watch(watchCtx, path)
	if err != nil {
		cancel()
		w.Stop()
		r.fail(fmt.Sprintf("watch disabled: %v", err))
		return
	}

	r.mu.Lock()
	r.watchTarget = path
	r.stopWatch = func() {
		cancel()
		w.Stop()
	}
	r.mu.Unlock()

	r.logger.Debug("watching document", zap.String("path", path))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for changed := range changes {
			r.reload(watchCtx, changed)
		}
	}()
}

func (r *REPL) unwatch() {
	r.mu.Lock()
	stop := r.stopWatch
	r.stopWatch = nil
	r.watchTarget = ""
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// reload re-selects the changed file and summarizes it again. A summary still
// in flight for the previous content is discarded when it settles.
func (r *REPL) reload(ctx context.Context, path string) {
	doc, err := r.opener.OpenDocument(path)
	if err != nil {
		r.logger.Debug("reload document failed", zap.String("path", path), zap.Error(err))
		r.fail(fmt.Sprintf("\n%s changed but cannot be read: %v", path, err))
		return
	}

	r.println("")
	r.dimln(fmt.Sprintf("%s changed on disk, summarizing again.", path))
	r.usecase.SelectDocument(ctx, r.store, doc)
	r.summarize(ctx)
	r.printPrompt()
}
