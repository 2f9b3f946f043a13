package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveBaseDir 计算服务目录：可执行文件所在目录
// 通过go run启动时可执行文件位于临时构建目录，此时改用入口源文件所在目录
func ResolveBaseDir(executable, sourceFile string) (string, error) {
	if executable == "" {
		return "", fmt.Errorf("可执行文件路径为空")
	}

	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}

	dir := filepath.Dir(executable)
	if isGoBuildDir(dir) && sourceFile != "" {
		dir = filepath.Dir(sourceFile)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("解析服务目录失败: %w", err)
	}
	return abs, nil
}

func isGoBuildDir(dir string) bool {
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if strings.HasPrefix(part, "go-build") {
			return true
		}
	}
	return false
}

// normalizeRoot 返回去掉符号链接的绝对路径，并确认它是目录
func normalizeRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("解析服务目录失败: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("服务目录不可用: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("服务目录不可用: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("服务目录不是目录: %s", resolved)
	}
	return resolved, nil
}
