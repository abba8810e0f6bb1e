package store

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk and wire format of the global date range.
const DateLayout = "2006-01-02"

// Names synthesized when the persisted configuration is missing or incomplete.
const (
	PlaceholderChatName     = "群聊1"
	PlaceholderTemplateName = "默认模板"
	UnnamedTemplateName     = "未命名模板"
	NewTemplateName         = "新模板"
)

// Chat is a named conversation source. Its identity is its index in
// AppConfig.Chats; two chats may share a name.
type Chat struct {
	Name string `json:"name"`
}

// Template is a reusable text block plus one inclusion flag per chat index.
type Template struct {
	Name         string `json:"name"`
	Content      string `json:"content"`
	EnabledChats []bool `json:"enabled_chats"`
}

// AppConfig is the persisted root aggregate.
type AppConfig struct {
	Chats           []Chat     `json:"chats"`
	Templates       []Template `json:"custom_templates"`
	CurrentTemplate int        `json:"current_template"`
	GlobalDateFrom  string     `json:"global_date_from"`
	GlobalDateTo    string     `json:"global_date_to"`
}

// Delivery is one combine-and-deliver run kept in the history database.
type Delivery struct {
	ID        string    `json:"id"`
	Template  string    `json:"template"`
	Chats     []string  `json:"chats"`
	Errors    int       `json:"errors"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// Today returns now formatted with DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Default is the configuration used when nothing usable is persisted.
func Default(today string) *AppConfig {
	return &AppConfig{
		Chats: []Chat{{Name: "群聊A"}, {Name: "群聊B"}},
		Templates: []Template{
			{Name: "模板A", Content: "这是A正文", EnabledChats: []bool{true, false}},
			{Name: "模板B", Content: "这是B正文", EnabledChats: []bool{true, true}},
		},
		CurrentTemplate: 0,
		GlobalDateFrom:  today,
		GlobalDateTo:    today,
	}
}

// Clone returns a deep copy.
func (c *AppConfig) Clone() *AppConfig {
	out := &AppConfig{
		Chats:           make([]Chat, len(c.Chats)),
		Templates:       make([]Template, len(c.Templates)),
		CurrentTemplate: c.CurrentTemplate,
		GlobalDateFrom:  c.GlobalDateFrom,
		GlobalDateTo:    c.GlobalDateTo,
	}
	copy(out.Chats, c.Chats)
	for i, tpl := range c.Templates {
		tpl.EnabledChats = append(make([]bool, 0, len(tpl.EnabledChats)), tpl.EnabledChats...)
		out.Templates[i] = tpl
	}
	return out
}

// ActiveTemplate returns the template selected by CurrentTemplate.
func (c *AppConfig) ActiveTemplate() (*Template, error) {
	if c.CurrentTemplate < 0 || c.CurrentTemplate >= len(c.Templates) {
		return nil, fmt.Errorf("current template %d out of range [0,%d)", c.CurrentTemplate, len(c.Templates))
	}
	return &c.Templates[c.CurrentTemplate], nil
}

// Normalize re-establishes the structural invariants: at least one chat, at
// least one template, every enablement vector as long as the chat list, a
// valid current template and non-empty dates. It returns a description of
// every repair made.
func (c *AppConfig) Normalize(today string) []string {
	var fixes []string

	if len(c.Chats) == 0 {
		c.Chats = []Chat{{Name: PlaceholderChatName}}
		fixes = append(fixes, "synthesized placeholder chat")
	}
	n := len(c.Chats)

	for i := range c.Templates {
		tpl := &c.Templates[i]
		switch {
		case len(tpl.EnabledChats) < n:
			if tpl.EnabledChats != nil {
				fixes = append(fixes, fmt.Sprintf("padded enabled_chats of template %d", i))
			}
			tpl.EnabledChats = append(tpl.EnabledChats, make([]bool, n-len(tpl.EnabledChats))...)
		case len(tpl.EnabledChats) > n:
			tpl.EnabledChats = tpl.EnabledChats[:n:n]
			fixes = append(fixes, fmt.Sprintf("truncated enabled_chats of template %d", i))
		}
	}

	if len(c.Templates) == 0 {
		c.Templates = []Template{{Name: PlaceholderTemplateName, EnabledChats: make([]bool, n)}}
		fixes = append(fixes, "synthesized placeholder template")
	}

	if c.CurrentTemplate < 0 {
		c.CurrentTemplate = 0
		fixes = append(fixes, "clamped current_template")
	} else if c.CurrentTemplate > len(c.Templates)-1 {
		c.CurrentTemplate = len(c.Templates) - 1
		fixes = append(fixes, "clamped current_template")
	}

	if c.GlobalDateFrom == "" {
		c.GlobalDateFrom = today
	}
	if c.GlobalDateTo == "" {
		c.GlobalDateTo = today
	}
	return fixes
}

// ValidDate reports whether s is a DateLayout date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
