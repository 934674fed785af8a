package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config アプリケーション全体の設定
type Config struct {
	Ollama    OllamaConfig    `yaml:"ollama"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Cache     CacheConfig     `yaml:"cache"`
	Profanity ProfanityConfig `yaml:"profanity"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// OllamaConfig Ollama APIの設定
type OllamaConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	EmbedModel     string  `yaml:"embed_model"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// CacheConfig 結果キャッシュの設定
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// ProfanityConfig 不適切語検出の設定
type ProfanityConfig struct {
	ExtraWords []string `yaml:"extra_words"`
}

// RetrievalConfig 参照文書検索の設定
type RetrievalConfig struct {
	Enabled  bool   `yaml:"enabled"`
	DocsPath string `yaml:"docs_path"`
	TopK     int    `yaml:"top_k"`
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(dataStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	cfg := &Config{
		Ollama: OllamaConfig{
			BaseURL: os.Getenv("OLLAMA_BASE_URL"),
			Model:   os.Getenv("OLLAMA_MODEL"),
		},
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
		},
		MySQL: MySQLConfig{
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "grammar",
		},
		Retrieval: RetrievalConfig{
			Enabled:  false,
			DocsPath: "docs/example_docs.txt",
		},
	}
	cfg.applyDefaults()

	return cfg
}

// applyDefaults 未設定の項目にデフォルト値を適用
func (c *Config) applyDefaults() {
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "gemma3:latest"
	}
	if c.Ollama.EmbedModel == "" {
		c.Ollama.EmbedModel = "llama3.2:latest"
	}
	if c.Ollama.Temperature == 0 {
		c.Ollama.Temperature = 0.3
	}
	if c.Ollama.TopP == 0 {
		c.Ollama.TopP = 0.9
	}
	if c.Ollama.MaxTokens == 0 {
		c.Ollama.MaxTokens = 1000
	}
	if c.Ollama.TimeoutSeconds == 0 {
		c.Ollama.TimeoutSeconds = 60
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
