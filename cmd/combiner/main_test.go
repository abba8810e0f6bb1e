package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wismass.com/chatlog-combiner/internal/store"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	t.Setenv("COMBINER_CONFIG_PATH", path)
	t.Setenv("COMBINER_HISTORY_DB", filepath.Join(dir, "history.db"))
	t.Setenv("COMBINER_LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func load(t *testing.T, path string) *store.AppConfig {
	t.Helper()
	return store.NewJSONStore(path, zerolog.Nop()).Load()
}

func TestChatsCommands(t *testing.T) {
	path := setupEnv(t)

	out, err := run(t, "chats", "add", "群聊C")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = run(t, "templates", "enable", "0", "2")
	require.NoError(t, err)
	_, err = run(t, "chats", "rm", "1")
	require.NoError(t, err)
	_, err = run(t, "chats", "rename", "0", "甲")
	require.NoError(t, err)

	cfg := load(t, path)
	assert.Equal(t, []store.Chat{{Name: "甲"}, {Name: "群聊C"}}, cfg.Chats)
	assert.Equal(t, []bool{true, true}, cfg.Templates[0].EnabledChats)
	assert.Equal(t, []bool{true, false}, cfg.Templates[1].EnabledChats)

	out, err = run(t, "chats", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "甲")
	assert.Contains(t, out, "群聊C")
}

func TestChatsAdd_EmptyNameAllowed(t *testing.T) {
	path := setupEnv(t)

	out, err := run(t, "chats", "add", "")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
	assert.Equal(t, store.Chat{}, load(t, path).Chats[2])
}

func TestChatsRemove_RejectedLeavesFileUntouched(t *testing.T) {
	path := setupEnv(t)

	_, err := run(t, "chats", "rm", "7")
	assert.Error(t, err)
	_, err = run(t, "chats", "rm", "x")
	assert.Error(t, err)

	assert.Len(t, load(t, path).Chats, 2)
}

func TestTemplatesCommands(t *testing.T) {
	path := setupEnv(t)

	out, err := run(t, "templates", "add", "周报", "--content", "本周总结")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = run(t, "templates", "select", "2")
	require.NoError(t, err)
	_, err = run(t, "templates", "edit", "2", "--content", "改过")
	require.NoError(t, err)
	_, err = run(t, "templates", "disable", "1", "0")
	require.NoError(t, err)
	_, err = run(t, "templates", "rm", "0")
	require.NoError(t, err)

	cfg := load(t, path)
	require.Len(t, cfg.Templates, 2)
	assert.Equal(t, 1, cfg.CurrentTemplate)
	assert.Equal(t, "周报", cfg.Templates[1].Name)
	assert.Equal(t, "改过", cfg.Templates[1].Content)
	assert.Equal(t, []bool{false, true}, cfg.Templates[0].EnabledChats)

	out, err = run(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* 1")
}

func TestDatesCommands(t *testing.T) {
	path := setupEnv(t)

	_, err := run(t, "dates", "set", "2025-05-01", "2025-05-27")
	require.NoError(t, err)
	out, err := run(t, "dates")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01~2025-05-27\n", out)

	_, err = run(t, "dates", "set", "2025-05-27", "2025-05-01")
	assert.Error(t, err)
	assert.Equal(t, "2025-05-01", load(t, path).GlobalDateFrom)
}

func TestCombineCommand(t *testing.T) {
	setupEnv(t)
	logService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello " + r.URL.Query().Get("talker")))
	}))
	defer logService.Close()
	t.Setenv("COMBINER_LOG_SERVICE_URL", logService.URL)

	_, err := run(t, "dates", "set", "2025-05-01", "2025-05-02")
	require.NoError(t, err)
	_, err = run(t, "templates", "select", "1")
	require.NoError(t, err)

	out, err := run(t, "combine")
	require.NoError(t, err)
	assert.Equal(t, "模板B\n\n这是B正文\n\n========\n【群聊：群聊A】\n========\nhello 群聊A"+
		"\n\n========\n【群聊：群聊B】\n========\nhello 群聊B\n", out)
}

func TestHistoryCommand_Empty(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInvalidSettingsAbort(t *testing.T) {
	setupEnv(t)
	t.Setenv("COMBINER_HOTKEY", "m")
	_, err := run(t, "chats", "list")
	assert.Error(t, err)
}
