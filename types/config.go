package types

import "time"

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Listen          string        `yaml:"listen"`
	Target          string        `yaml:"target"`     // base URL of the upload backend, e.g. http://127.0.0.1:8080
	UploadPath      string        `yaml:"uploadPath"` // /upload or /documents/add
	DocsDir         string        `yaml:"docsDir"`
	MetadataPath    string        `yaml:"metadataPath"`
	SpeedLimitBytes int64         `yaml:"speedLimitBytes"` // per upload, 0 = unlimited
	TaskTimeout     time.Duration `yaml:"taskTimeout"`     // 0 = a stalled upload stalls its batch forever
	Proxy           string        `yaml:"proxy,omitempty"` // socks5 host:port
	BatchTTL        time.Duration `yaml:"batchTTL"`
	NotifySocket    string        `yaml:"notifySocket,omitempty"` // unix socket of a desktop helper, empty = off
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log           string
	UseConfigPath string
	UseListen     string
	UseTarget     string
	UseUploadPath string
	UseProxy      string
	UseSpeedLimit int64
	Action        string   // e.g. publish/<hash>/<group>
	Files         []string // positional args, uploaded as one batch
}
