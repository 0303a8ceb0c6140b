package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/relver/internal/config"
	"git.home.luguber.info/inful/relver/internal/logfields"
	"git.home.luguber.info/inful/relver/internal/util/sets"
)

// treeWatcher triggers a rescan when artifact sources change, coalescing
// bursts of events behind a debounce window. Excluded directories are never
// watched, so dependency-cache churn stays invisible.
type treeWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	ignored  sets.Set[string]
}

func newTreeWatcher(cfg *config.Config, debounce time.Duration, onChange func()) (*treeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	tw := &treeWatcher{
		watcher:  watcher,
		debounce: debounce,
		onChange: onChange,
		ignored:  sets.New(cfg.Defaults.Exclude...),
	}
	tw.ignored.Add(".relver")

	for _, a := range cfg.Artifacts {
		resolved := cfg.ResolveArtifact(a)
		if err := tw.addTree(resolved.Path); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return tw, nil
}

// addTree registers dir and every non-excluded subdirectory; fsnotify does
// not recurse on its own.
func (tw *treeWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// A racing delete between listing and watching is not fatal.
			slog.Debug("Watch skip", logfields.Path(p), logfields.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if tw.ignored.Has(d.Name()) && p != root {
			return filepath.SkipDir
		}
		return tw.watcher.Add(p)
	})
}

// Run pumps watcher events until ctx is done.
func (tw *treeWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if tw.ignored.Has(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Source change detected", logfields.Path(event.Name))
			if event.Op&fsnotify.Create != 0 {
				// New directories need explicit registration.
				_ = tw.addTree(event.Name)
			}
			if timer == nil {
				timer = time.AfterFunc(tw.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(tw.debounce)
			}
		case <-fire:
			timer = nil
			tw.onChange()
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (tw *treeWatcher) Close() {
	_ = tw.watcher.Close()
}
