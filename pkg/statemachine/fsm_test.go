package statemachine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

func idleRunning() *Config {
	return NewConfig("idle").
		AddState("idle", Transitions{"start": "running"}).
		AddState("running", Transitions{"stop": "idle"})
}

func TestFSM_InitialState(t *testing.T) {
	fsm := NewFSM(idleRunning())

	assert.Equal(t, State("idle"), fsm.Current())
	assert.Equal(t, State("idle"), fsm.Initial())
	assert.False(t, fsm.CanUndo())
	assert.False(t, fsm.CanRedo())
}

func TestFSM_TriggerUndoExample(t *testing.T) {
	fsm := NewFSM(idleRunning())

	require.NoError(t, fsm.Trigger("start"))
	assert.Equal(t, State("running"), fsm.Current())

	require.NoError(t, fsm.Trigger("stop"))
	assert.Equal(t, State("idle"), fsm.Current())

	assert.True(t, fsm.Undo())
	assert.Equal(t, State("running"), fsm.Current())

	assert.True(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())

	assert.False(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_ChangeState(t *testing.T) {
	fsm := NewFSM(idleRunning())

	require.NoError(t, fsm.ChangeState("running"))
	assert.Equal(t, State("running"), fsm.Current())

	assert.True(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_ChangeStateToSelf(t *testing.T) {
	fsm := NewFSM(idleRunning())

	require.NoError(t, fsm.ChangeState("idle"))
	undo, _ := fsm.History()
	assert.Equal(t, []State{"idle"}, undo)
}

func TestFSM_ChangeStateInvalid(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))
	require.True(t, fsm.Undo())

	err := fsm.ChangeState("missing")
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "missing")

	assert.Equal(t, State("idle"), fsm.Current())
	undo, redo := fsm.History()
	assert.Empty(t, undo)
	assert.Equal(t, []State{"running"}, redo, "failed change must not clear redo")
}

func TestFSM_TriggerInvalid(t *testing.T) {
	fsm := NewFSM(idleRunning())

	err := fsm.Trigger("stop")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, State("idle"), fsm.Current())
	assert.False(t, fsm.CanUndo())
}

func TestFSM_TriggerInvalidKeepsHistory(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))
	require.True(t, fsm.Undo())

	err := fsm.Trigger("stop")
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, State("idle"), fsm.Current())
	undo, redo := fsm.History()
	assert.Empty(t, undo)
	assert.Equal(t, []State{"running"}, redo, "failed trigger must not clear redo")

	assert.True(t, fsm.Redo())
	assert.Equal(t, State("running"), fsm.Current())
}

func TestFSM_TriggerUnvalidatedTarget(t *testing.T) {
	cfg := NewConfig("idle").AddState("idle", Transitions{"jump": "nowhere"})
	fsm := NewFSM(cfg)

	require.NoError(t, fsm.Trigger("jump"))
	assert.Equal(t, State("nowhere"), fsm.Current())

	// 未定义的状态没有任何转换规则
	require.ErrorIs(t, fsm.Trigger("jump"), ErrInvalidTransition)
	assert.False(t, fsm.Can("jump"))

	assert.True(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_TriggerEmptyTarget(t *testing.T) {
	cfg := NewConfig("a").AddState("a", Transitions{"clear": ""})
	fsm := NewFSM(cfg)

	assert.True(t, fsm.Can("clear"))
	require.NoError(t, fsm.Trigger("clear"))
	assert.Equal(t, State(""), fsm.Current())
}

func TestFSM_Can(t *testing.T) {
	fsm := NewFSM(idleRunning())

	assert.True(t, fsm.Can("start"))
	assert.False(t, fsm.Can("stop"))
}

func TestFSM_Reset(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))

	fsm.Reset()
	assert.Equal(t, State("idle"), fsm.Current())

	undo, redo := fsm.History()
	assert.Equal(t, []State{"idle"}, undo, "reset must not touch history")
	assert.Empty(t, redo)

	// undo 回到 reset 之前的上一条记录
	assert.True(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())
	_, redo = fsm.History()
	assert.Equal(t, []State{"idle"}, redo)
}

func TestFSM_ResetUnvalidatedInitial(t *testing.T) {
	fsm := NewFSM(NewConfig("ghost").AddState("real", nil))

	assert.Equal(t, State("ghost"), fsm.Current())
	require.NoError(t, fsm.ChangeState("real"))
	fsm.Reset()
	assert.Equal(t, State("ghost"), fsm.Current())
}

func TestFSM_NilConfig(t *testing.T) {
	fsm := NewFSM(nil)

	assert.Equal(t, State(""), fsm.Current())
	assert.Empty(t, fsm.States())
	require.ErrorIs(t, fsm.ChangeState("x"), ErrInvalidState)
	require.ErrorIs(t, fsm.Trigger("x"), ErrInvalidTransition)
}

func TestFSM_States(t *testing.T) {
	cfg := NewConfig("c").
		AddState("c", Transitions{"go": "a", "halt": "b"}).
		AddState("a", Transitions{"go": "b"}).
		AddState("b", Transitions{"back": "c"})
	fsm := NewFSM(cfg)

	assert.Equal(t, []State{"c", "a", "b"}, fsm.States())
	assert.Equal(t, []State{"c", "a"}, fsm.StatesWith("go"))
	assert.Equal(t, []State{"b"}, fsm.StatesWith("back"))

	none := fsm.StatesWith("unknown")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFSM_UndoRedoRoundTrip(t *testing.T) {
	cfg := NewConfig("s0")
	for _, s := range []State{"s0", "s1", "s2", "s3", "s4"} {
		cfg.AddState(s, Transitions{"next": s + "'"})
	}
	fsm := NewFSM(cfg)

	path := []State{"s0", "s1", "s2", "s3", "s4"}
	for _, s := range path[1:] {
		require.NoError(t, fsm.ChangeState(s))
	}

	n := len(path) - 1
	for k := 1; k <= n; k++ {
		require.True(t, fsm.Undo())
		assert.Equal(t, path[n-k], fsm.Current())
	}
	assert.False(t, fsm.Undo())

	for k := 1; k <= n; k++ {
		require.True(t, fsm.Redo())
		assert.Equal(t, path[k], fsm.Current())
	}
	assert.False(t, fsm.Redo())
	assert.Equal(t, State("s4"), fsm.Current())
}

func TestFSM_ForwardMoveClearsRedo(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))

	require.True(t, fsm.Undo())
	require.True(t, fsm.CanRedo())

	require.NoError(t, fsm.ChangeState("running"))
	assert.False(t, fsm.Redo())
	assert.Equal(t, State("running"), fsm.Current())
}

func TestFSM_TriggerClearsRedo(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))
	require.True(t, fsm.Undo())

	require.NoError(t, fsm.Trigger("start"))
	assert.False(t, fsm.CanRedo())
}

func TestFSM_EmptyStacks(t *testing.T) {
	fsm := NewFSM(idleRunning())

	assert.False(t, fsm.Undo())
	assert.False(t, fsm.Redo())
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_ClearHistory(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))
	require.NoError(t, fsm.Trigger("stop"))
	require.True(t, fsm.Undo())

	fsm.ClearHistory()

	assert.Equal(t, State("running"), fsm.Current())
	assert.False(t, fsm.Undo())
	assert.False(t, fsm.Redo())
}

func TestFSM_ConfigIsolated(t *testing.T) {
	cfg := idleRunning()
	fsm := NewFSM(cfg)

	cfg.AddState("extra", nil)
	cfg.Initial = "extra"

	require.ErrorIs(t, fsm.ChangeState("extra"), ErrInvalidState)
	fsm.Reset()
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_HistorySnapshot(t *testing.T) {
	fsm := NewFSM(idleRunning())
	require.NoError(t, fsm.Trigger("start"))

	undo, _ := fsm.History()
	undo[0] = "tampered"

	require.True(t, fsm.Undo())
	assert.Equal(t, State("idle"), fsm.Current())
}

func TestFSM_Logger(t *testing.T) {
	var buf bytes.Buffer
	fsm := NewFSM(idleRunning(), WithLogger(logger.New(&buf, logger.DebugLevel)))

	require.NoError(t, fsm.Trigger("start"))
	require.Error(t, fsm.Trigger("start"))
	fsm.Undo()

	out := buf.String()
	assert.Contains(t, out, "fsm state changed")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "fsm undo")
	assert.Equal(t, 2, strings.Count(out, "\n"), "errors are returned, not logged")
}
