package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"wismass.com/chatlog-combiner/internal/store"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLastChat        = errors.New("at least one chat must remain")
	ErrLastTemplate    = errors.New("at least one template must remain")
	ErrInvalidDate     = errors.New("invalid date range")
)

// Workspace owns the process's single AppConfig. Every structural edit goes
// through its methods, which keep each template's enablement vector exactly
// as long as the chat list. Callers only ever see deep copies.
//
// Rejected edits return one of the sentinel errors above and leave the
// configuration untouched.
type Workspace struct {
	mu  sync.RWMutex
	cfg *store.AppConfig
	now func() time.Time
}

// NewWorkspace takes a normalized copy of cfg.
func NewWorkspace(cfg *store.AppConfig) *Workspace {
	w := &Workspace{now: time.Now}
	w.Replace(cfg)
	return w
}

// Snapshot returns a deep copy of the current configuration.
func (w *Workspace) Snapshot() *store.AppConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg.Clone()
}

// Replace installs a normalized copy of cfg.
func (w *Workspace) Replace(cfg *store.AppConfig) {
	next := cfg.Clone()
	next.Normalize(store.Today(w.now()))

	w.mu.Lock()
	w.cfg = next
	w.mu.Unlock()
}

// AddChat appends a chat, appends false to every template's vector and
// returns the new chat's index.
func (w *Workspace) AddChat(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg.Chats = append(w.cfg.Chats, store.Chat{Name: name})
	for i := range w.cfg.Templates {
		w.cfg.Templates[i].EnabledChats = append(w.cfg.Templates[i].EnabledChats, false)
	}
	return len(w.cfg.Chats) - 1
}

// RemoveChat deletes the chat at index and the flag at the same position in
// every template. Flags before index are untouched; flags after it shift
// down by one.
func (w *Workspace) RemoveChat(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.cfg.Chats) {
		return fmt.Errorf("remove chat %d: %w", index, ErrIndexOutOfRange)
	}
	if len(w.cfg.Chats) <= 1 {
		return ErrLastChat
	}

	w.cfg.Chats = append(w.cfg.Chats[:index], w.cfg.Chats[index+1:]...)
	for i := range w.cfg.Templates {
		flags := w.cfg.Templates[i].EnabledChats
		if index < len(flags) {
			w.cfg.Templates[i].EnabledChats = append(flags[:index], flags[index+1:]...)
		}
	}
	return nil
}

// RenameChat changes a display name only; templates refer to chats by index.
func (w *Workspace) RenameChat(index int, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.cfg.Chats) {
		return fmt.Errorf("rename chat %d: %w", index, ErrIndexOutOfRange)
	}
	w.cfg.Chats[index].Name = name
	return nil
}

// AddTemplate appends a template that includes no chats and returns its index.
func (w *Workspace) AddTemplate(name, content string) int {
	if name == "" {
		name = store.NewTemplateName
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg.Templates = append(w.cfg.Templates, store.Template{
		Name:         name,
		Content:      content,
		EnabledChats: make([]bool, len(w.cfg.Chats)),
	})
	return len(w.cfg.Templates) - 1
}

// RemoveTemplate deletes a template. The selection keeps pointing at the
// same template when an earlier one is removed; removing the selected
// template selects its successor, or the new last template.
func (w *Workspace) RemoveTemplate(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.cfg.Templates) {
		return fmt.Errorf("remove template %d: %w", index, ErrIndexOutOfRange)
	}
	if len(w.cfg.Templates) <= 1 {
		return ErrLastTemplate
	}

	w.cfg.Templates = append(w.cfg.Templates[:index], w.cfg.Templates[index+1:]...)
	if index < w.cfg.CurrentTemplate {
		w.cfg.CurrentTemplate--
	}
	if w.cfg.CurrentTemplate >= len(w.cfg.Templates) {
		w.cfg.CurrentTemplate = len(w.cfg.Templates) - 1
	}
	return nil
}

func (w *Workspace) UpdateTemplate(index int, name, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.cfg.Templates) {
		return fmt.Errorf("update template %d: %w", index, ErrIndexOutOfRange)
	}
	w.cfg.Templates[index].Name = name
	w.cfg.Templates[index].Content = content
	return nil
}

func (w *Workspace) SetChatEnabled(template, chat int, enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if template < 0 || template >= len(w.cfg.Templates) {
		return fmt.Errorf("template %d: %w", template, ErrIndexOutOfRange)
	}
	if chat < 0 || chat >= len(w.cfg.Chats) {
		return fmt.Errorf("chat %d: %w", chat, ErrIndexOutOfRange)
	}
	w.cfg.Templates[template].EnabledChats[chat] = enabled
	return nil
}

func (w *Workspace) SelectTemplate(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.cfg.Templates) {
		return fmt.Errorf("select template %d: %w", index, ErrIndexOutOfRange)
	}
	w.cfg.CurrentTemplate = index
	return nil
}

// SetDateRange sets the fetch window shared by every chat.
func (w *Workspace) SetDateRange(from, to string) error {
	f, err := time.Parse(store.DateLayout, from)
	if err != nil {
		return fmt.Errorf("date from %q: %w", from, ErrInvalidDate)
	}
	t, err := time.Parse(store.DateLayout, to)
	if err != nil {
		return fmt.Errorf("date to %q: %w", to, ErrInvalidDate)
	}
	if t.Before(f) {
		return fmt.Errorf("%s is after %s: %w", from, to, ErrInvalidDate)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.GlobalDateFrom = from
	w.cfg.GlobalDateTo = to
	return nil
}
