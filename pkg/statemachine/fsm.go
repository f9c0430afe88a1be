package statemachine

import (
	"fmt"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

// FSM 有限状态机实现，支持线性的撤销/重做
//
// FSM 不做内部加锁，多个 goroutine 共享同一实例时由调用方负责互斥，
// 或者通过 Registry 访问。
type FSM struct {
	config  *Config
	current State
	undo    history
	redo    history
	log     logger.Logger
}

var _ StateMachine = (*FSM)(nil)

// NewFSM 根据配置创建状态机，配置被复制，之后修改 cfg 不影响已创建的状态机
//
// 构造时不校验配置，无效的初始状态会在后续调用中体现。
func NewFSM(cfg *Config, opts ...Option) *FSM {
	c := cfg.clone()
	f := &FSM{
		config:  c,
		current: c.Initial,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Current 返回当前状态
func (f *FSM) Current() State {
	return f.current
}

// Initial 返回配置的初始状态
func (f *FSM) Initial() State {
	return f.config.Initial
}

// ChangeState 直接跳转到指定状态，不检查转换规则
func (f *FSM) ChangeState(to State) error {
	if !f.config.Has(to) {
		return fmt.Errorf("%w: %q", ErrInvalidState, to)
	}
	f.move(to, "change")
	return nil
}

// Trigger 按当前状态的转换规则处理事件
//
// 目标状态不要求在配置中定义。
func (f *FSM) Trigger(event Event) error {
	to, ok := f.target(event)
	if !ok {
		return fmt.Errorf("%w: event %q in state %q", ErrInvalidTransition, event, f.current)
	}
	f.move(to, "trigger", logger.String("event", string(event)))
	return nil
}

// Can 检查 Trigger(event) 是否会成功
func (f *FSM) Can(event Event) bool {
	_, ok := f.target(event)
	return ok
}

// Reset 回到初始状态，不修改历史记录
func (f *FSM) Reset() {
	from := f.current
	f.current = f.config.Initial
	f.log.Debug("fsm reset", logger.String("from", string(from)), logger.String("to", string(f.current)))
}

// States 按定义顺序返回所有状态
func (f *FSM) States() []State {
	return f.config.Names()
}

// StatesWith 按定义顺序返回定义了 event 转换规则的状态，没有时返回空切片
func (f *FSM) StatesWith(event Event) []State {
	states := make([]State, 0)
	for _, name := range f.config.order {
		if _, ok := f.config.defs[name].Transitions[event]; ok {
			states = append(states, name)
		}
	}
	return states
}

// Undo 回到上一个状态，没有可撤销的记录时返回 false
func (f *FSM) Undo() bool {
	prev, ok := f.undo.pop()
	if !ok {
		return false
	}
	f.redo.push(f.current)
	f.log.Debug("fsm undo", logger.String("from", string(f.current)), logger.String("to", string(prev)))
	f.current = prev
	return true
}

// Redo 重做被撤销的状态，没有可重做的记录时返回 false
func (f *FSM) Redo() bool {
	next, ok := f.redo.pop()
	if !ok {
		return false
	}
	f.undo.push(f.current)
	f.log.Debug("fsm redo", logger.String("from", string(f.current)), logger.String("to", string(next)))
	f.current = next
	return true
}

// CanUndo 是否存在可撤销的记录
func (f *FSM) CanUndo() bool {
	return len(f.undo) > 0
}

// CanRedo 是否存在可重做的记录
func (f *FSM) CanRedo() bool {
	return len(f.redo) > 0
}

// History 返回撤销栈与重做栈的副本，栈顶在末尾
func (f *FSM) History() (undo, redo []State) {
	return f.undo.snapshot(), f.redo.snapshot()
}

// ClearHistory 清空撤销与重做记录，不改变当前状态
func (f *FSM) ClearHistory() {
	f.undo.clear()
	f.redo.clear()
	f.log.Debug("fsm history cleared", logger.String("state", string(f.current)))
}

// target 查找当前状态下 event 的目标，以键是否存在为准
func (f *FSM) target(event Event) (State, bool) {
	def, ok := f.config.Lookup(f.current)
	if !ok {
		return "", false
	}
	to, ok := def.Transitions[event]
	return to, ok
}

// move 前进到新状态：当前状态入撤销栈并清空重做栈
func (f *FSM) move(to State, cause string, fields ...logger.Field) {
	from := f.current
	f.undo.push(from)
	f.redo.clear()
	f.current = to

	f.log.Debug("fsm state changed", append([]logger.Field{
		logger.String("cause", cause),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
	}, fields...)...)
}
