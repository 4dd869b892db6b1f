package tool

import (
	"flag"

	"github.com/reasonableperson/etrial-manager/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseListen, "useListen", "", "override listen address, e.g. :8080")
	flag.StringVar(&cfg.UseTarget, "useTarget", "", "override upload backend base URL")
	flag.StringVar(&cfg.UseUploadPath, "useUploadPath", "", "override upload path (/upload or /documents/add)")
	flag.StringVar(&cfg.UseProxy, "useProxy", "", "socks5 proxy for outgoing requests, e.g. 127.0.0.1:1080")
	flag.Int64Var(&cfg.UseSpeedLimit, "useSpeedLimit", 0, "per-upload speed limit in bytes/s (0 = unlimited)")
	flag.StringVar(&cfg.Action, "action", "", "issue one action request, e.g. publish/<hash>/<group>, then exit")
	flag.Parse()
	cfg.Files = flag.Args()
	return cfg
}

// ApplyFlags merges non-empty flag overrides into the app config.
func ApplyFlags(appCfg *types.AppConfig, flags types.Config) {
	if flags.UseListen != "" {
		appCfg.Listen = flags.UseListen
	}
	if flags.UseTarget != "" {
		appCfg.Target = flags.UseTarget
	}
	if flags.UseUploadPath != "" {
		appCfg.UploadPath = flags.UseUploadPath
	}
	if flags.UseProxy != "" {
		appCfg.Proxy = flags.UseProxy
	}
	if flags.UseSpeedLimit > 0 {
		appCfg.SpeedLimitBytes = flags.UseSpeedLimit
	}
}
