// Package config 提供配置加载功能
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissingLLMCredential 默认文本生成提供商未配置 API Key
var ErrMissingLLMCredential = errors.New("config: default LLM provider has no api_key")

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom 从指定目录加载 config.yaml 与 config.{APP_ENV}.yaml
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (兜底)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		// 未定义且无默认值时保留原样，便于排查
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 校验启动必需配置
// 文本生成凭证缺失视为致命错误；素材服务凭证缺失则退化为演示素材
func (c *Config) Validate() error {
	name := c.LLM.DefaultProvider
	p, ok := c.LLM.Providers[name]
	if !ok {
		return fmt.Errorf("config: default LLM provider %q is not defined", name)
	}
	key := strings.TrimSpace(p.APIKey)
	if key == "" || envPattern.MatchString(key) {
		return fmt.Errorf("%w (provider %q)", ErrMissingLLMCredential, name)
	}
	if c.Generation.MaxVariations < 1 {
		return fmt.Errorf("config: generation.max_variations must be >= 1, got %d", c.Generation.MaxVariations)
	}
	// 多变体依赖步长拉开各自温度
	if c.Generation.MaxVariations > 1 && c.Generation.TemperatureStep <= 0 {
		return fmt.Errorf("config: generation.temperature_step must be > 0 when max_variations > 1, got %v", c.Generation.TemperatureStep)
	}
	if c.Enrichment.MaxConcurrency < 0 {
		return fmt.Errorf("config: enrichment.max_concurrency must be >= 0, got %d", c.Enrichment.MaxConcurrency)
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "promo-script-ai-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "180s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// PostgreSQL 默认值
	v.SetDefault("database.postgres.enabled", false)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "promo_script")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", "1h")
	v.SetDefault("database.postgres.conn_max_idle_time", "10m")
	v.SetDefault("database.postgres.slow_threshold", "1s")
	v.SetDefault("database.postgres.auto_migrate", true)

	// Redis 默认值
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "promo:")
	v.SetDefault("cache.redis.pool_size", 50)
	v.SetDefault("cache.redis.min_idle_conns", 5)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	// LLM 默认值
	v.SetDefault("llm.default_provider", "openai")

	// 素材服务默认值
	v.SetDefault("assets.getty.base_url", "https://api.gettyimages.com/v3/search/images")
	v.SetDefault("assets.getty.page_size", 1)
	v.SetDefault("assets.getty.timeout", "15s")
	v.SetDefault("assets.getty.requests_per_second", 5)
	v.SetDefault("assets.elevenlabs.base_url", "https://api.elevenlabs.io/v1/text-to-speech")
	v.SetDefault("assets.elevenlabs.model_id", "eleven_monolingual_v1")
	v.SetDefault("assets.elevenlabs.default_voice", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("assets.elevenlabs.stability", 0.5)
	v.SetDefault("assets.elevenlabs.similarity_boost", 0.75)
	v.SetDefault("assets.elevenlabs.timeout", "60s")
	v.SetDefault("assets.placeholders.footage_url",
		"https://d25u9hypq51glx.cloudfront.net/arole/3cb7e03d-a95c-4102-86b8-20c5bc8630ed/video/d0b41e2b-76a0-4be6-8bfa-1115b3707f9f/video.mp4")
	v.SetDefault("assets.placeholders.voiceover_url",
		"https://d25u9hypq51glx.cloudfront.net/audio_projects/whisper/3cb7e03d-a95c-4102-86b8-20c5bc8630ed/848380575464/audio.mp3")
	v.SetDefault("assets.placeholders.background_music_url",
		"https://d25u9hypq51glx.cloudfront.net/image_projects/3cb7e03d-a95c-4102-86b8-20c5bc8630ed/assets/audio/13592a75-3fa1-42f8-8b21-cc72b3bd54ef/audio.mp3")

	// 生成默认值
	v.SetDefault("generation.base_temperature", 0.7)
	v.SetDefault("generation.temperature_step", 0.1)
	v.SetDefault("generation.keyword_temperature", 0.7)
	v.SetDefault("generation.max_temperature", 2.0)
	v.SetDefault("generation.max_variations", 5)
	v.SetDefault("generation.timeout", "120s")

	// 补全默认值
	v.SetDefault("enrichment.max_concurrency", 8)
	v.SetDefault("enrichment.timeout", "120s")
	v.SetDefault("enrichment.voiceover_cache_ttl", "24h")
	v.SetDefault("enrichment.footage_cache_ttl", "6h")

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
}
