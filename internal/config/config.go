package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/senbaris/clustereye-pgcheck/internal/logger"
)

// FileName, varsayılan konfigürasyon dosyasının adı
const FileName = "check_postgre.yml"

// AgentConfig, check için konfigürasyon yapısı
type AgentConfig struct {
	// PostgreSQL Bağlantı Bilgileri
	PostgreSQL struct {
		Host      string   `yaml:"host"`
		Port      string   `yaml:"port"`
		User      string   `yaml:"user"`
		Pass      string   `yaml:"pass"`
		SSLMode   string   `yaml:"sslmode"`
		AdminDB   string   `yaml:"admin_database"`
		Databases []string `yaml:"databases"`
	} `yaml:"postgresql"`

	// Performans bölümleri
	Stats struct {
		Disk  bool `yaml:"diskstat"`
		Tuple bool `yaml:"tupstat"`
		Index bool `yaml:"indstat"`
	} `yaml:"stats"`

	// StateFile boşsa state.DefaultPath kullanılır
	StateFile string `yaml:"state_file"`
	LogLevel  string `yaml:"log_level"`
}

// Default, varsayılan ayarlarla bir konfigürasyon döndürür
func Default() *AgentConfig {
	cfg := &AgentConfig{}
	cfg.PostgreSQL.Host = "127.0.0.1"
	cfg.PostgreSQL.Port = "5432"
	cfg.PostgreSQL.User = "postgres"
	cfg.PostgreSQL.SSLMode = "disable"
	cfg.PostgreSQL.AdminDB = "postgres"
	cfg.LogLevel = "WARNING"
	return cfg
}

// LoadAgentConfig, konfigürasyonu yükler. path boşsa dosya aranır;
// bulunamazsa varsayılanlar döner. Dosya hiçbir zaman oluşturulmaz.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	cfg := Default()

	if path == "" {
		path = findConfigPath(FileName)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	logger.Debug("Config loaded from %s", path)

	return cfg, nil
}

// Validate, çalıştırma öncesi zorunlu alanları kontrol eder
func (c *AgentConfig) Validate() error {
	if len(c.PostgreSQL.Databases) == 0 {
		return fmt.Errorf("no databases to monitor, specify at least one with -d")
	}
	if c.PostgreSQL.AdminDB == "" {
		return fmt.Errorf("admin database must not be empty")
	}
	if c.PostgreSQL.Host == "" || c.PostgreSQL.Port == "" {
		return fmt.Errorf("host and port must not be empty")
	}
	return nil
}

// findConfigPath returns the first existing config file: the working dir,
// then /etc/check_postgre. Empty when there is none.
func findConfigPath(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}

	etcPath := filepath.Join("/etc", "check_postgre", filename)
	if _, err := os.Stat(etcPath); err == nil {
		logger.Debug("Found config in: %s", etcPath)
		return etcPath
	}

	return ""
}
