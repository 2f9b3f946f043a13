package server

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/cloud-platform/cors-static/shared/config"
)

var (
	bannerTitle = color.New(color.FgGreen, color.Bold)
	bannerURL   = color.New(color.FgCyan)
)

func printBanner(w io.Writer, cfg *config.ServerConfig, root string) {
	bannerTitle.Fprintln(w, "🚀 静态文件服务器启动成功！")
	fmt.Fprintf(w, "📱 本地访问: %s\n", bannerURL.Sprint(cfg.LocalURL()))
	fmt.Fprintf(w, "🌐 外部访问: %s\n", bannerURL.Sprint(cfg.ExternalURL()))
	fmt.Fprintf(w, "📁 服务目录: %s\n", root)
	fmt.Fprintln(w, "按 Ctrl+C 停止服务器")
}

func printShutdown(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "👋 服务器已停止")
}
