package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/waterwatch/internal/flagx"
	"gopkg.in/yaml.v3"
)

// parseFile overlays Config with values loaded from the file named by -c or
// -config. Without the flag nothing happens. Unmarshalling into the already
// populated Config keeps every value the file does not mention.
//
// Panics on read or unmarshal errors.
func parseFile(cfg *Config) {
	path, format := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	switch format {
	case flagx.FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		panic(err)
	}
}
