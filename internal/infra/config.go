package infra

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Finnhub struct {
			BaseURL   string `yaml:"base_url"`
			APIKey    string `yaml:"api_key"`
			BackupKey string `yaml:"backup_key"`
		} `yaml:"finnhub"`
		Polygon struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"polygon"`
		Alpaca struct {
			BaseURL   string `yaml:"base_url"`
			APIKey    string `yaml:"api_key"`
			SecretKey string `yaml:"secret_key"`
		} `yaml:"alpaca"`
		Yahoo struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
	} `yaml:"api"`

	Cache struct {
		TTLSec             int `yaml:"ttl_sec"`              // Price cache freshness window
		MaxSize            int `yaml:"max_size"`             // Price cache capacity
		CompanyTTLSec      int `yaml:"company_ttl_sec"`      // Company name freshness window
		MaxCompanySize     int `yaml:"max_company_size"`     // Company name cache capacity
		MinRequestInterval int `yaml:"min_request_interval"` // Seconds between provider cascades
	} `yaml:"cache"`

	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	Watchlist []string `yaml:"watchlist"`

	Refresh struct {
		IntervalSec int `yaml:"interval_sec"`
	} `yaml:"refresh"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	// 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(&cfg)

	// 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Cache.CompanyTTLSec <= 0 {
		c.Cache.CompanyTTLSec = 86400
	}
	if c.Cache.MaxCompanySize <= 0 {
		c.Cache.MaxCompanySize = 500
	}
	if c.Cache.MinRequestInterval <= 0 {
		c.Cache.MinRequestInterval = 2
	}
	if c.Refresh.IntervalSec <= 0 {
		c.Refresh.IntervalSec = 60
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Cache.MaxSize < 10 {
		return fmt.Errorf("cache max_size too small: %d", c.Cache.MaxSize)
	}
	if c.Cache.MaxCompanySize < 10 {
		return fmt.Errorf("cache max_company_size too small: %d", c.Cache.MaxCompanySize)
	}
	for _, sym := range c.Watchlist {
		if sym == "" {
			return fmt.Errorf("watchlist contains an empty symbol")
		}
	}
	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.API.Finnhub.APIKey = key
	}
	if key := os.Getenv("FINNHUB_API_KEY_SECOND"); key != "" {
		cfg.API.Finnhub.BackupKey = key
	}
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		cfg.API.Polygon.APIKey = key
	}
	if key := os.Getenv("ALPACA_API_KEY"); key != "" {
		cfg.API.Alpaca.APIKey = key
	}
	if secret := os.Getenv("ALPACA_SECRET_KEY"); secret != "" {
		cfg.API.Alpaca.SecretKey = secret
	}
	if endpoint := os.Getenv("ALPACA_ENDPOINT"); endpoint != "" {
		cfg.API.Alpaca.BaseURL = endpoint
	}
	if v := envInt("CACHE_TTL"); v > 0 {
		cfg.Cache.TTLSec = v
	}
	if v := envInt("MAX_CACHE_SIZE"); v > 0 {
		cfg.Cache.MaxSize = v
	}
	if v := envInt("COMPANY_CACHE_TTL"); v > 0 {
		cfg.Cache.CompanyTTLSec = v
	}
	if v := envInt("MAX_COMPANY_CACHE_SIZE"); v > 0 {
		cfg.Cache.MaxCompanySize = v
	}
	if v := envInt("MIN_REQUEST_INTERVAL"); v > 0 {
		cfg.Cache.MinRequestInterval = v
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.Storage.DBPath = path
	}
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
