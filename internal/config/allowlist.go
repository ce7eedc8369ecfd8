package config

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/viper"
)

// Allowlist is the set of sensitive-information-type categories enabled for
// comparison. Immutable after Load; threaded explicitly through the pipeline
// instead of being read from ambient state.
type Allowlist struct {
	enabled  map[string]struct{}
	disabled map[string]struct{}
	allowAll bool
}

type sitEntry struct {
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
}

type allowlistFile struct {
	SensitiveInfoTypes []sitEntry `mapstructure:"sensitiveInfoTypes"`
}

// Load reads the allow-list configuration document (JSON or YAML, detected
// by extension). Filtering is an enhancement, not a hard requirement: a
// missing or unreadable document degrades to "all categories enabled".
func Load(path string) *Allowlist {
	if path == "" {
		return allowAll()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		log.Warnf("allow-list %s unreadable, including every category: %v", path, err)
		return allowAll()
	}

	var doc allowlistFile
	if err := v.Unmarshal(&doc); err != nil {
		log.Warnf("allow-list %s malformed, including every category: %v", path, err)
		return allowAll()
	}
	if len(doc.SensitiveInfoTypes) == 0 {
		log.Warnf("allow-list %s lists no categories, including every category", path)
		return allowAll()
	}

	a := &Allowlist{
		enabled:  make(map[string]struct{}),
		disabled: make(map[string]struct{}),
	}
	for _, e := range doc.SensitiveInfoTypes {
		if e.Enabled {
			a.enabled[e.Name] = struct{}{}
		} else {
			a.disabled[e.Name] = struct{}{}
		}
	}
	log.Infof("allow-list loaded: %d enabled, %d disabled categories", len(a.enabled), len(a.disabled))
	return a
}

func allowAll() *Allowlist {
	return &Allowlist{allowAll: true}
}

// Enabled reports whether a category participates in the comparison.
// Categories absent from the document are treated as enabled.
func (a *Allowlist) Enabled(name string) bool {
	if a.allowAll {
		return true
	}
	_, off := a.disabled[name]
	return !off
}

// AllEnabled reports whether the loader degraded to include-everything mode.
func (a *Allowlist) AllEnabled() bool { return a.allowAll }

// Counts returns the enabled/disabled category counts from the document.
func (a *Allowlist) Counts() (enabled, disabled int) {
	return len(a.enabled), len(a.disabled)
}

// String describes the allow-list for run metadata.
func (a *Allowlist) String() string {
	if a.allowAll {
		return "all categories enabled"
	}
	return fmt.Sprintf("%d enabled, %d disabled", len(a.enabled), len(a.disabled))
}
