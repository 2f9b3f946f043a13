package server

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 请求的路径在服务目录下不存在
	ErrNotFound = errors.New("文件不存在")
	// ErrPathTraversal 请求路径试图逃出服务目录
	ErrPathTraversal = errors.New("拒绝路径穿越")
	// ErrForbidden 文件存在但无权读取
	ErrForbidden = errors.New("无权访问")
)

// BindError 监听地址绑定失败
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("绑定地址 %s 失败: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
