package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrEmptyPath 配置路径为空
var ErrEmptyPath = errors.New("config path is empty")

// expandPath 展开路径模板中的 {{.AppName}} 与 {{.ExecDir}}
func (o *options) expandPath(tpl, execDir string) string {
	return strings.NewReplacer(
		"{{.AppName}}", o.appName,
		"{{.ExecDir}}", execDir,
	).Replace(tpl)
}

// checkFile 确认 path 指向一个可读取的普通文件
func checkFile(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", fs.ErrNotExist, path)
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case !fi.Mode().IsRegular():
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
