package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miki-714/portfolio/internal/typewriter"
)

var fastTiming = typewriter.Timing{
	Type:   time.Millisecond,
	Hold:   2 * time.Millisecond,
	Delete: time.Millisecond,
	Pause:  time.Millisecond,
}

func newTestModel(t *testing.T, limit int64, roles ...string) model {
	t.Helper()
	m, err := typewriter.NewMachine(roles, fastTiming)
	require.NoError(t, err)
	return newModel(m, "_", limit)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelTypesOnTick(t *testing.T) {
	m := newTestModel(t, 0, "HI")
	assert.Contains(t, m.View(), "_")
	assert.NotContains(t, m.View(), "H")

	m, cmd := update(t, m, tickMsg{gen: m.gen})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "H")
	assert.Equal(t, "H", m.machine.State().Displayed)

	m, _ = update(t, m, tickMsg{gen: m.gen})
	assert.Equal(t, "HI", m.machine.State().Displayed)
	assert.Equal(t, int64(2), m.ticks)
}

func TestModelPauseDropsPendingTicks(t *testing.T) {
	m := newTestModel(t, 0, "HI")
	stale := tickMsg{gen: m.gen}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.paused)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "paused")

	m, _ = update(t, m, stale)
	assert.Empty(t, m.machine.State().Displayed)

	// Resuming schedules a fresh tick; the one from before the pause is
	// still ignored.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.paused)
	assert.NotNil(t, cmd)
	m, _ = update(t, m, stale)
	assert.Empty(t, m.machine.State().Displayed)

	m, _ = update(t, m, tickMsg{gen: m.gen})
	assert.Equal(t, "H", m.machine.State().Displayed)
}

func TestModelQuits(t *testing.T) {
	m := newTestModel(t, 0, "HI")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, isQuit(cmd))

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestModelStopsAtLimit(t *testing.T) {
	m := newTestModel(t, 2, "HI")
	m, cmd := update(t, m, tickMsg{gen: m.gen})
	assert.False(t, isQuit(cmd))
	_, cmd = update(t, m, tickMsg{gen: m.gen})
	assert.True(t, isQuit(cmd))
}

func TestRunPlain(t *testing.T) {
	cyc, err := typewriter.New([]string{"AB"}, typewriter.Options{Timing: fastTiming, Cursor: "_"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runPlain(context.Background(), &out, cyc, 6))
	assert.Equal(t, "_\nA_\nAB_\nAB_\nA_\n_\n_\n", out.String())
}

func TestRunPlainStopsOnCancel(t *testing.T) {
	cyc, err := typewriter.New([]string{"AB"}, typewriter.Options{Timing: fastTiming})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var out bytes.Buffer
	err = runPlain(ctx, &out, cyc, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.HasPrefix(out.String(), "|\n"))
}

func TestRootCommandPlainOutput(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--role", "Go", "--type", "1ms", "--hold", "1ms", "--delete", "1ms", "--pause", "1ms", "-n", "3"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "|\nG|\nGo|\nGo|\n", out.String())
}

func TestRootCommandReadsContentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hero:\n  uppercase_roles: true\n  roles: [ok]\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", path, "--type", "1ms", "-n", "2", "--cursor", "#"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "#\nO#\nOK#\n", out.String())
}

func TestRootCommandRejectsBadTiming(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--role", "Go", "--hold", "0s"})
	assert.ErrorIs(t, cmd.Execute(), typewriter.ErrInvalidConfiguration)
}
