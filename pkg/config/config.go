package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type PostgresConfig struct {
	Host        string `json:"host"`
	ReplicaHost string `json:"replicaHost"` // optional read replica, same credentials
	Port        string `json:"port"`
	DBName      string `json:"dbname"`
	User        string `json:"user"`
	Password    string `json:"password"`
	SSLMode     string `json:"sslmode"`
	TimeZone    string `json:"TimeZone"`
}

type Config struct {
	// Port Settings
	Host       string `json:"host"`       // The domain name of the server.
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		AccessTokenSecret      string `json:"accessTokenSecret"`
		RefreshTokenSecret     string `json:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `json:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `json:"refreshTokenExpiryHour"`
	} `json:"auth"`

	Postgres PostgresConfig `json:"postgres"`

	// FileStorage is the external document storage service; the backend only
	// passes opaque IDs around.
	FileStorage struct {
		BaseURL string `json:"baseURL"`
		Token   string `json:"token"`
	} `json:"fileStorage"`

	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		From     string `json:"from"`
	} `json:"smtp"`

	// LDAP login for institutional accounts, enabled per deployment.
	LDAP struct {
		Enable   bool   `json:"enable"`
		Address  string `json:"address"`
		UserName string `json:"userName"`
		Password string `json:"password"`
		SearchDN string `json:"searchDN"`
	} `json:"ldap"`

	Workflow struct {
		// TopicLockSpec is the cron spec of the topic lock sweeper.
		TopicLockSpec string `json:"topicLockSpec"`
	} `json:"workflow"`
}

var (
	once   sync.Once
	config *Config
)

const defaultConfigPath = "./etc/config.yaml"

// GetConfig loads the config file once and returns the singleton.
func GetConfig() *Config {
	once.Do(func() {
		path := os.Getenv("CAPSTONE_CONFIG_PATH")
		if path == "" {
			path = defaultConfigPath
		}
		data, err := os.ReadFile(path)
		if err != nil {
			klog.Fatalf("read config %s: %v", path, err)
		}
		config = &Config{}
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Fatalf("parse config %s: %v", path, err)
		}
		if config.Workflow.TopicLockSpec == "" {
			config.Workflow.TopicLockSpec = "0 * * * *"
		}
		if config.Auth.AccessTokenExpiryHour == 0 {
			config.Auth.AccessTokenExpiryHour = 2
		}
		if config.Auth.RefreshTokenExpiryHour == 0 {
			config.Auth.RefreshTokenExpiryHour = 168
		}
		if gin.Mode() == gin.DebugMode {
			klog.Infof("config loaded from %s", path)
		}
	})
	return config
}
