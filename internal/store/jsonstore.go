package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// JSONStore persists an AppConfig as an indented, human-readable JSON file.
// The whole document is rewritten on every save.
type JSONStore struct {
	path string
	log  zerolog.Logger
	now  func() time.Time
}

func NewJSONStore(path string, log zerolog.Logger) *JSONStore {
	return &JSONStore{path: path, log: log, now: time.Now}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Load never fails: a missing or unreadable file yields Default, and a
// partially malformed file is reconstructed field by field before being
// normalized.
func (s *JSONStore) Load() *AppConfig {
	today := Today(s.now())

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info().Str("path", s.path).Msg("no configuration file, using defaults")
		} else {
			s.log.Warn().Err(err).Str("path", s.path).Msg("configuration file unreadable, using defaults")
		}
		return Default(today)
	}

	cfg, problems, err := decodeConfig(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("configuration file malformed, using defaults")
		return Default(today)
	}
	for _, p := range problems {
		s.log.Warn().Str("path", s.path).Msg("configuration: " + p)
	}
	for _, fix := range cfg.Normalize(today) {
		s.log.Info().Str("path", s.path).Msg("configuration normalized: " + fix)
	}
	return cfg
}

// Save writes cfg to a temporary file next to the target and renames it
// into place. An existing file keeps its permissions; a new one gets 0644.
func (s *JSONStore) Save(cfg *AppConfig) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set config file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace config file %s: %w", s.path, err)
	}
	return nil
}

// Encode renders cfg the way Save writes it: two-space indent, non-ASCII
// text left unescaped. Strings that are not valid UTF-8 are written with
// each invalid byte replaced by U+FFFD, so such a config does not survive
// a save and load unchanged; the result of that first load does.
func Encode(cfg *AppConfig) ([]byte, error) {
	out := cfg.Clone()
	for i := range out.Templates {
		if out.Templates[i].EnabledChats == nil {
			out.Templates[i].EnabledChats = []bool{}
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

type rawTemplate struct {
	Name         *string         `json:"name"`
	Content      *string         `json:"content"`
	EnabledChats json.RawMessage `json:"enabled_chats"`
}

// decodeConfig fails only when data is not a JSON object at all. Anything
// else that cannot be decoded is dropped or defaulted and reported in
// problems.
func decodeConfig(data []byte) (*AppConfig, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var (
		cfg      AppConfig
		problems []string
	)

	var chats []json.RawMessage
	if v, ok := raw["chats"]; ok {
		if err := json.Unmarshal(v, &chats); err != nil {
			problems = append(problems, "chats is not a list, ignored")
		}
	}
	for i, c := range chats {
		var chat Chat
		if err := json.Unmarshal(c, &chat); err == nil {
			cfg.Chats = append(cfg.Chats, chat)
			continue
		}
		// A bare string is accepted as the chat name.
		var name string
		if err := json.Unmarshal(c, &name); err == nil {
			cfg.Chats = append(cfg.Chats, Chat{Name: name})
			continue
		}
		problems = append(problems, fmt.Sprintf("chat %d malformed, dropped", i))
	}

	var templates []json.RawMessage
	if v, ok := raw["custom_templates"]; ok {
		if err := json.Unmarshal(v, &templates); err != nil {
			problems = append(problems, "custom_templates is not a list, ignored")
		}
	}
	for i, t := range templates {
		var rt rawTemplate
		if err := json.Unmarshal(t, &rt); err != nil {
			problems = append(problems, fmt.Sprintf("template %d malformed, dropped", i))
			continue
		}
		tpl := Template{Name: UnnamedTemplateName}
		if rt.Name != nil {
			tpl.Name = *rt.Name
		}
		if rt.Content != nil {
			tpl.Content = *rt.Content
		}
		if len(rt.EnabledChats) > 0 && string(rt.EnabledChats) != "null" {
			if err := json.Unmarshal(rt.EnabledChats, &tpl.EnabledChats); err != nil {
				problems = append(problems, fmt.Sprintf("enabled_chats of template %d malformed, reset", i))
				tpl.EnabledChats = nil
			}
		}
		cfg.Templates = append(cfg.Templates, tpl)
	}

	if v, ok := raw["current_template"]; ok {
		if err := json.Unmarshal(v, &cfg.CurrentTemplate); err != nil {
			problems = append(problems, "current_template malformed, reset to 0")
			cfg.CurrentTemplate = 0
		}
	}

	cfg.GlobalDateFrom = decodeDate(raw, "global_date_from", &problems)
	cfg.GlobalDateTo = decodeDate(raw, "global_date_to", &problems)

	return &cfg, problems, nil
}

// decodeDate returns "" for a missing or invalid date so Normalize fills in
// today.
func decodeDate(raw map[string]json.RawMessage, key string, problems *[]string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || !ValidDate(s) {
		*problems = append(*problems, key+" malformed, reset to today")
		return ""
	}
	return s
}
