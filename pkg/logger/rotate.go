package logger

import (
	"fmt"
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Filename     string        // 日志文件路径
	MaxSize      int           // 单个文件最大尺寸(MB)，按大小轮转时有效
	MaxBackups   int           // 保留的旧文件数量，按大小轮转时有效
	MaxAge       int           // 旧文件保留天数
	Compress     bool          // 是否压缩旧文件，按大小轮转时有效
	RotationTime time.Duration // 轮转周期，按时间轮转时有效
	LocalTime    bool          // 使用本地时间命名
}

// NewRotateBySize 按文件大小轮转
func NewRotateBySize(cfg *RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
}

// NewProductionRotateBySize 生产环境默认的按大小轮转配置
func NewProductionRotateBySize(filename string) io.Writer {
	return NewRotateBySize(&RotateConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
		LocalTime:  true,
	})
}

// NewRotateByTime 按时间轮转，Filename 作为当前日志的软链接
func NewRotateByTime(cfg *RotateConfig) (io.Writer, error) {
	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}
	maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	clock := rotatelogs.UTC
	if cfg.LocalTime {
		clock = rotatelogs.Local
	}

	w, err := rotatelogs.New(
		cfg.Filename+".%Y%m%d%H",
		rotatelogs.WithLinkName(cfg.Filename),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("create rotate logs failed: %w", err)
	}
	return w, nil
}

// NewProductionRotateByTime 生产环境默认的按天轮转配置
func NewProductionRotateByTime(filename string) (io.Writer, error) {
	return NewRotateByTime(&RotateConfig{
		Filename:     filename,
		MaxAge:       7,
		RotationTime: 24 * time.Hour,
		LocalTime:    true,
	})
}
