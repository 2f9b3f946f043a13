package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	notFoundBody  = "404 page not found"
	forbiddenBody = "403 forbidden"
	internalBody  = "500 internal server error"
)

// fileHandler 把请求路径映射到服务目录下的文件
type fileHandler struct {
	root       string
	indexFiles []string
	listDirs   bool
	log        *zap.Logger
}

func newFileHandler(root string, indexFiles []string, listDirs bool, log *zap.Logger) *fileHandler {
	return &fileHandler{
		root:       root,
		indexFiles: indexFiles,
		listDirs:   listDirs,
		log:        log,
	}
}

// Serve 处理GET/HEAD请求
func (h *fileHandler) Serve(c *gin.Context) {
	upath := c.Request.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
	}

	err := h.serve(c, upath)
	if err == nil {
		return
	}
	_ = c.Error(err)

	switch {
	case errors.Is(err, ErrPathTraversal):
		h.log.Warn("拒绝路径穿越请求",
			zap.String("path", upath),
			zap.String("client_ip", c.ClientIP()),
		)
		notFound(c)
	case errors.Is(err, ErrNotFound):
		notFound(c)
	case errors.Is(err, ErrForbidden):
		c.String(http.StatusForbidden, forbiddenBody)
	default:
		h.log.Error("读取文件失败", zap.String("path", upath), zap.Error(err))
		c.String(http.StatusInternalServerError, internalBody)
	}
}

func (h *fileHandler) serve(c *gin.Context, upath string) error {
	if containsDotDot(upath) {
		return ErrPathTraversal
	}

	name := path.Clean(upath)
	target, err := h.resolve(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return classifyFSError(err)
	}

	if !info.IsDir() {
		// 文件路径不接受结尾斜杠
		if strings.HasSuffix(upath, "/") {
			return fmt.Errorf("%w: %s", ErrNotFound, upath)
		}
		return h.serveContent(c, target)
	}

	if !strings.HasSuffix(upath, "/") {
		location := url.URL{Path: strings.TrimSuffix(name, "/") + "/", RawQuery: c.Request.URL.RawQuery}
		c.Redirect(http.StatusMovedPermanently, location.String())
		return nil
	}

	for _, index := range h.indexFiles {
		indexPath, err := h.resolve(path.Join(name, index))
		if err != nil {
			continue
		}
		if st, err := os.Stat(indexPath); err == nil && !st.IsDir() {
			return h.serveContent(c, indexPath)
		}
	}

	if !h.listDirs {
		return fmt.Errorf("%w: %s", ErrNotFound, upath)
	}

	return h.listDirectory(c, target, name)
}

// resolve 把清理过的URL路径转换为文件系统路径，符号链接指向服务目录之外时拒绝
func (h *fileHandler) resolve(name string) (string, error) {
	full := filepath.Join(h.root, filepath.FromSlash(name))

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", classifyFSError(err)
	}

	rel, err := filepath.Rel(h.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}
	return resolved, nil
}

func (h *fileHandler) serveContent(c *gin.Context, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return classifyFSError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("读取文件信息失败: %w", err)
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return nil
}

func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	default:
		return err
	}
}

func notFound(c *gin.Context) {
	c.String(http.StatusNotFound, notFoundBody)
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
