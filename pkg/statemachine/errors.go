package statemachine

import "errors"

var (
	// ErrInvalidState ChangeState 的目标状态未在配置中定义
	ErrInvalidState = errors.New("state name not found")

	// ErrInvalidTransition 当前状态没有该事件的转换规则
	ErrInvalidTransition = errors.New("transition not found")

	// ErrMachineNotFound Registry 中不存在该名称的状态机
	ErrMachineNotFound = errors.New("state machine not found")

	// ErrNilMachine 向 Registry 注册了 nil 状态机
	ErrNilMachine = errors.New("nil state machine")
)
