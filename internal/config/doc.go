// Package config provides configuration parsing for cellui applications.
//
// The configuration is stored in cellui.yaml at the project root. Every
// field is optional; missing fields keep their defaults.
//
// # Configuration File Structure
//
//	app:
//	  name: counter
//	  mount_id: app
//	server:
//	  addr: localhost:3000
//	  read_timeout: 60s
//	  write_timeout: 10s
//	  max_message_size: 65536
//	  inbox_size: 64
//	  allowed_origins: ["https://example.com"]
//	runtime:
//	  mode: development
//	metrics:
//	  enabled: true
//	  path: /metrics
//	  namespace: cellui
//
// CELLUI_MODE, CELLUI_ADDR and CELLUI_METRICS override the file.
//
// # Usage
//
//	cfg, err := config.LoadOptional(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
