package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"

	"tradechat/internal/config"
	"tradechat/internal/logger"
)

// Renderer holds the active chat system template. When a template file is
// configured it is watched and reloaded on change; a broken edit keeps the
// previous template active.
type Renderer struct {
	mu   sync.RWMutex
	tmpl *template.Template
	path string
}

// NewRenderer loads the template from cfg, falling back to the built-in one
// when no directory is configured or the file is missing.
func NewRenderer(cfg config.PromptConfig) (*Renderer, error) {
	r := &Renderer{}
	builtin, err := parseChatTemplate(defaultChatTemplate)
	if err != nil {
		return nil, err
	}
	r.tmpl = builtin

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return r, nil
	}
	name := strings.TrimSpace(cfg.SystemTemplate)
	if name == "" {
		name = "system.tmpl"
	}
	r.path = filepath.Join(dir, name)
	if err := r.loadFromFile(); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("prompt template %s not found, using built-in", r.path)
			return r, nil
		}
		return nil, err
	}
	return r, nil
}

func (r *Renderer) loadFromFile() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	tmpl, err := parseChatTemplate(string(data))
	if err != nil {
		return fmt.Errorf("template %s: %w", r.path, err)
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

// RenderSystem renders the chat system context for one turn.
func (r *Renderer) RenderSystem(data SystemData) (string, error) {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()
	return renderTemplate(tmpl, data)
}

// Watch reloads the template whenever its file changes, until ctx is done.
// Events are debounced because editors emit several writes per save.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		if err := r.loadFromFile(); err != nil {
			logger.Warnf("prompt template reload failed, keeping previous: %v", err)
			return
		}
		logger.Infof("prompt template reloaded from %s", r.path)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("prompt template watcher: %v", err)
		}
	}
}
