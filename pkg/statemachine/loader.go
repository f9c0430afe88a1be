package statemachine

import (
	"fmt"

	"github.com/junbin-yang/go-fsmkit/pkg/config"
)

// LoadConfig 从 YAML/JSON 文件加载状态机配置，格式按后缀识别
//
// 环境变量 FSM_INITIAL 非空时覆盖文件中的 initial。
func LoadConfig(path string, opts ...config.Option) (*Config, error) {
	cm := config.NewConfigManager[Config](opts...)
	if err := cm.LoadConfig(path); err != nil {
		return nil, fmt.Errorf("load fsm config: %w", err)
	}
	return cm.GetConfig()
}
