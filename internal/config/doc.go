// Package config loads blocklog settings. Default() gives a usable baseline,
// Load overlays a JSON or YAML file on it and FromEnv applies BLOCKLOG_*
// variables last.
//
// Example:
//
//	cfg, err := config.Load("/etc/blocklog.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
