package statemachine

import "github.com/junbin-yang/go-fsmkit/pkg/logger"

// Option FSM 构造选项
type Option func(*FSM)

// WithLogger 设置日志，每次状态变化输出一条 Debug 日志
func WithLogger(l logger.Logger) Option {
	return func(f *FSM) {
		if l != nil {
			f.log = l
		}
	}
}
