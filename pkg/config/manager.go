package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

var (
	// ErrNotLoaded 配置尚未加载
	ErrNotLoaded = errors.New("config not initialized, call LoadConfig first")

	// ErrNotFound 默认路径下未找到配置文件
	ErrNotFound = errors.New("no valid config file found (tried default paths and formats)")
)

// Manager 通用配置管理器，T 为配置结构体类型
//
// 重载时总是解析到新的 *T 实例，已经通过 GetConfig 取得的旧实例不会被修改。
type Manager[T any] struct {
	opts       options
	instance   *T         // 当前配置实例
	configPath string     // 配置文件路径
	serializer Serializer // 当前使用的序列化器
	once       sync.Once  // 确保配置只加载一次
	mu         sync.RWMutex
	loadErr    error

	watcher   *fsnotify.Watcher
	watchQuit chan struct{}
	closeOnce sync.Once

	callbacks []func(old, new *T)
}

// NewConfigManager 创建配置管理器实例
func NewConfigManager[T any](opts ...Option) *Manager[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager[T]{
		opts:       o,
		serializer: o.serializer,
		watchQuit:  make(chan struct{}),
	}
}

// LoadConfig 加载配置文件
// customPath: 自定义配置路径，空字符串使用默认路径
func (cm *Manager[T]) LoadConfig(customPath string) error {
	cm.once.Do(func() {
		cm.mu.Lock()
		defer cm.mu.Unlock()

		if customPath != "" {
			if err := checkFile(customPath); err != nil {
				cm.loadErr = fmt.Errorf("invalid custom config path: %w", err)
				return
			}
			cm.configPath = customPath
			cm.serializer = cm.chooseSerializer(customPath)
		} else {
			path, s, err := cm.findDefaultConfigPath()
			if err != nil {
				cm.loadErr = fmt.Errorf("default config not found: %w", err)
				return
			}
			cm.configPath, cm.serializer = path, s
		}

		instance, err := cm.parseConfigFile(cm.configPath, cm.serializer)
		if err != nil {
			cm.loadErr = fmt.Errorf("parse config failed: %w", err)
			return
		}
		cm.instance = instance

		if cm.opts.enableWatch {
			if err := cm.startWatch(); err != nil {
				cm.opts.log.Warn("config watch disabled", logger.String("path", cm.configPath), logger.Err(err))
			}
		}
	})

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.loadErr
}

// GetConfig 获取当前配置实例
func (cm *Manager[T]) GetConfig() (*T, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.loadErr != nil {
		return nil, cm.loadErr
	}
	if cm.instance == nil {
		return nil, ErrNotLoaded
	}
	return cm.instance, nil
}

// Path 返回实际加载的配置文件路径
func (cm *Manager[T]) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// SaveConfig 保存配置到文件
func (cm *Manager[T]) SaveConfig() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.instance == nil || cm.configPath == "" {
		return ErrNotLoaded
	}

	data, err := cm.serializer.Marshal(cm.instance)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	// 先写入临时文件（避免文件损坏）
	tmpPath := cm.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp config failed: %w", err)
	}

	if err := os.Rename(tmpPath, cm.configPath); err != nil {
		return fmt.Errorf("rename temp config failed: %w", err)
	}

	return nil
}

// ReloadConfig 手动重新加载配置
func (cm *Manager[T]) ReloadConfig() error {
	cm.mu.Lock()

	if cm.configPath == "" {
		cm.mu.Unlock()
		return errors.New("config path not initialized")
	}
	if err := checkFile(cm.configPath); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("invalid config path: %w", err)
	}

	newInstance, err := cm.parseConfigFile(cm.configPath, cm.serializer)
	if err != nil {
		cm.mu.Unlock()
		return err
	}

	oldInstance := cm.instance
	cm.instance = newInstance
	cm.loadErr = nil

	// 复制回调列表（避免死锁）
	callbacks := make([]func(old, new *T), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	// 触发配置变更回调（在锁外执行）
	for _, callback := range callbacks {
		callback(oldInstance, newInstance)
	}

	return nil
}

// EnableWatch 动态启用/禁用配置监听
func (cm *Manager[T]) EnableWatch(enable bool) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.opts.enableWatch = enable
	if enable && cm.configPath != "" {
		return cm.startWatch()
	}
	cm.stopWatch()
	return nil
}

// Close 关闭配置管理器（停止监听）
func (cm *Manager[T]) Close() {
	cm.mu.Lock()
	cm.stopWatch()
	cm.mu.Unlock()
	cm.closeOnce.Do(func() { close(cm.watchQuit) })
}

// OnChange 注册配置变更回调
func (cm *Manager[T]) OnChange(callback func(old, new *T)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

/* ------------------------------ 内部方法 ------------------------------ */

// chooseSerializer 选择序列化器：强制格式 > 后缀识别 > 默认
func (cm *Manager[T]) chooseSerializer(path string) Serializer {
	if cm.opts.forceFormat != nil {
		return cm.opts.forceFormat
	}

	ext := filepath.Ext(path)
	for _, format := range cm.opts.supportedFormats {
		if matchExt(format, ext) {
			return format
		}
	}

	return cm.opts.serializer
}

// findDefaultConfigPath 查找默认配置路径
func (cm *Manager[T]) findDefaultConfigPath() (string, Serializer, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, pathTpl := range cm.opts.defaultPaths {
		basePath := cm.opts.expandPath(pathTpl, execDir)

		// 先尝试无后缀文件
		if err := checkFile(basePath); err == nil {
			return basePath, cm.chooseSerializer(basePath), nil
		}

		for _, format := range cm.opts.supportedFormats {
			fullPath := basePath + format.GetFileExt()
			if err := checkFile(fullPath); err == nil {
				if cm.opts.forceFormat != nil {
					return fullPath, cm.opts.forceFormat, nil
				}
				return fullPath, format, nil
			}
		}
	}

	return "", nil, ErrNotFound
}

// startWatch 启动配置文件监听，调用方持有写锁
func (cm *Manager[T]) startWatch() error {
	if cm.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}

	// 监听所在目录，编辑器的原子替换会让文件本身的监听失效
	if err := watcher.Add(filepath.Dir(cm.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("add watch path failed: %w", err)
	}

	cm.watcher = watcher
	go cm.watchLoop(watcher, filepath.Clean(cm.configPath))
	return nil
}

// stopWatch 停止配置文件监听，调用方持有写锁
func (cm *Manager[T]) stopWatch() {
	if cm.watcher != nil {
		_ = cm.watcher.Close()
		cm.watcher = nil
	}
}

// watchLoop 监听文件变化循环
func (cm *Manager[T]) watchLoop(watcher *fsnotify.Watcher, target string) {
	// go1.23 起 Stop 之后不会再收到旧值
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(cm.opts.watchDebounceInterval)
			}

		case <-debounce.C:
			if err := cm.ReloadConfig(); err != nil {
				cm.opts.log.Error("config auto reload failed", logger.String("path", target), logger.Err(err))
			} else {
				cm.opts.log.Info("config auto reloaded", logger.String("path", target))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cm.opts.log.Warn("config watch error", logger.Err(err))

		case <-cm.watchQuit:
			return
		}
	}
}

// parseConfigFile 解析配置文件到新实例并应用环境变量覆盖
func (cm *Manager[T]) parseConfigFile(path string, s Serializer) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %w", err)
	}

	instance := new(T)
	if err := s.Unmarshal(data, instance); err != nil {
		return nil, fmt.Errorf("unmarshal failed (%s): %w", s.GetName(), err)
	}

	if err := applyEnvOverrides(instance); err != nil {
		return nil, fmt.Errorf("apply env overrides failed: %w", err)
	}

	return instance, nil
}
