package statemachine

// State 表示状态机中的状态
type State string

// Event 表示触发状态转换的事件
type Event string

// Transitions 事件到目标状态的映射
type Transitions map[Event]State

// StateDef 单个状态的定义
type StateDef struct {
	Transitions Transitions `yaml:"transitions" json:"transitions"`
}

// StateMachine 定义状态机的核心接口
type StateMachine interface {
	// Current 返回当前状态
	Current() State

	// Trigger 按当前状态的转换规则处理事件
	Trigger(event Event) error

	// Can 检查当前状态是否定义了该事件
	Can(event Event) bool

	// Reset 重置状态机到初始状态
	Reset()
}
