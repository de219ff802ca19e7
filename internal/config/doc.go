// Package config loads runtime configuration for the waterwatch client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via flags: -c or -config. Files ending
//     in .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding the database and the master key
//	-n string   secure store namespace
//	-k string   master key file (default <data dir>/master.key)
//	-l string   log level: debug, info, warn, error
//	-f string   log format: text, json, console
//
// # File schema
//
//	{
//	  "data_dir": "/home/jane/.config/waterwatch",
//	  "namespace": "secure_user_data",
//	  "key_file": "",
//	  "log_level": "info",
//	  "log_format": "console"
//	}
//
// Keys absent from the file keep their default value.
package config
