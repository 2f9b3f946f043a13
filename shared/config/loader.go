package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadOptions 配置加载参数
type LoadOptions struct {
	// ConfigFile 可选的YAML配置文件路径，为空时只使用默认值
	ConfigFile string
	// Overrides 在文件之后应用的键值覆盖，例如命令行参数
	Overrides map[string]interface{}
}

// Load 加载配置
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	cfg, err := Load(LoadOptions{})
	if err != nil {
		panic(fmt.Sprintf("默认配置无效: %v", err))
	}
	return cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认值
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// 静态文件默认值
	v.SetDefault("static.index_files", []string{"index.html", "index.htm"})
	v.SetDefault("static.list_directories", true)

	// 日志默认值
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	// 跨域默认值
	v.SetDefault("security.cors.allow_origin", "*")
	v.SetDefault("security.cors.allow_methods", "GET, POST, OPTIONS")
	v.SetDefault("security.cors.allow_headers", "*")
	v.SetDefault("security.cors.x_frame_options", "ALLOWALL")

	// 限流默认关闭
	v.SetDefault("security.rate_limit.rps", 0)
	v.SetDefault("security.rate_limit.burst", 20)
	v.SetDefault("security.rate_limit.cleanup_interval", "1m")
}
