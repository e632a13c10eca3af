// Copyright 2026 The logconfig Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format identifies a declarative configuration encoding.
type Format string

const (
	// FormatJSON selects JSON configuration input.
	FormatJSON Format = "json"
	// FormatYAML selects YAML configuration input.
	FormatYAML Format = "yaml"
)

// Logger names contain dots, so the koanf instance must not use "." as its
// key delimiter or "app.mail" would be flattened into nested maps.
const koanfDelim = "::"

// TreeConfig is the declarative description of a base logging tree: named
// sinks, named loggers referencing them, and an optional root logger.
type TreeConfig struct {
	Handlers map[string]HandlerConfig `koanf:"handlers"`
	Loggers  map[string]LoggerConfig  `koanf:"loggers"`
	Root     *LoggerConfig            `koanf:"root"`
}

// HandlerConfig describes one sink.
type HandlerConfig struct {
	// Kind selects the output encoding: "text" or "json".
	Kind string `koanf:"kind"`
	// Target selects the destination: "stdout", "stderr", or "file".
	Target string `koanf:"target"`
	// Level is the sink's minimum level; empty means debug (no gating).
	Level string `koanf:"level"`
	// File configures the rotating file sink when Target is "file".
	File FileConfig `koanf:"file"`
}

// FileConfig configures a rotating log file.
type FileConfig struct {
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// LoggerConfig describes one named logger.
type LoggerConfig struct {
	// Level is the logger's level; empty inherits from the parent.
	Level string `koanf:"level"`
	// Handlers lists sink names from the handlers section.
	Handlers []string `koanf:"handlers"`
	// Propagate controls ancestor delivery; nil means true.
	Propagate *bool `koanf:"propagate"`
}

// ParseTreeConfig decodes raw JSON or YAML configuration bytes.
func ParseTreeConfig(data []byte, format Format) (*TreeConfig, error) {
	k := koanf.New(koanfDelim)
	var err error
	switch format {
	case FormatJSON:
		err = k.Load(rawbytes.Provider(data), kjson.Parser())
	case FormatYAML:
		err = k.Load(rawbytes.Provider(data), kyaml.Parser())
	default:
		return nil, configErr("parse", "", fmt.Errorf("unsupported config format %q", format))
	}
	if err != nil {
		return nil, configErr("parse", "", err)
	}
	return unmarshalTreeConfig(k)
}

// LoadTreeConfigFile reads a configuration file, detecting the format from
// its extension (.json, .yaml, .yml).
func LoadTreeConfigFile(path string) (*TreeConfig, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErr("load", path, err)
	}
	return ParseTreeConfig(data, format)
}

// TreeConfigFromMap decodes an in-memory configuration mapping, for callers
// that build configuration programmatically instead of loading a file.
func TreeConfigFromMap(m map[string]any) (*TreeConfig, error) {
	k := koanf.New(koanfDelim)
	if err := k.Load(confmap.Provider(m, koanfDelim), nil); err != nil {
		return nil, configErr("parse", "", err)
	}
	return unmarshalTreeConfig(k)
}

// unmarshalTreeConfig maps loaded keys onto the typed schema and validates.
func unmarshalTreeConfig(k *koanf.Koanf) (*TreeConfig, error) {
	var cfg TreeConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, configErr("parse", "", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// detectFormat infers the Format from a file extension.
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", configErr("load", path, errors.New("cannot detect config format from extension"))
	}
}

// validate checks cross-references and enumerations before any sink is built.
func (c *TreeConfig) validate() error {
	for name, hc := range c.Handlers {
		if err := hc.validate(); err != nil {
			return configErr("handler", name, err)
		}
	}
	check := func(loggerName string, lc *LoggerConfig) error {
		if lc == nil {
			return nil
		}
		if lc.Level != "" {
			if _, err := ParseLevel(lc.Level); err != nil {
				return configErr("logger", loggerName, err)
			}
		}
		for _, ref := range lc.Handlers {
			if _, ok := c.Handlers[ref]; !ok {
				return configErr("logger", loggerName, fmt.Errorf("unknown handler %q", ref))
			}
		}
		return nil
	}
	if err := check("root", c.Root); err != nil {
		return err
	}
	for name := range c.Loggers {
		lc := c.Loggers[name]
		if err := check(name, &lc); err != nil {
			return err
		}
	}
	return nil
}

// validate checks a single handler description.
func (hc HandlerConfig) validate() error {
	switch hc.Kind {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown handler kind %q", hc.Kind)
	}
	switch hc.Target {
	case "", "stdout", "stderr":
	case "file":
		if hc.File.Path == "" {
			return errors.New("file target requires file.path")
		}
	default:
		return fmt.Errorf("unknown handler target %q", hc.Target)
	}
	if hc.Level != "" {
		if _, err := ParseLevel(hc.Level); err != nil {
			return err
		}
	}
	return nil
}

// ParseLevel converts a configuration level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", name)
	}
}

// Apply materializes the configuration onto tree: sinks are constructed,
// logger levels and handler sets assigned. It returns the closers for any
// file sinks it opened so the caller can release them at teardown.
func (c *TreeConfig) Apply(tree *Tree) ([]func() error, error) {
	built := make(map[string]slog.Handler, len(c.Handlers))
	var closers []func() error
	for name, hc := range c.Handlers {
		h, closer, err := buildSink(hc)
		if err != nil {
			return closers, configErr("handler", name, err)
		}
		built[name] = h
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	apply := func(name string, lc LoggerConfig) error {
		if lc.Level != "" {
			level, err := ParseLevel(lc.Level)
			if err != nil {
				return configErr("logger", name, err)
			}
			tree.SetLevel(name, level)
		}
		if len(lc.Handlers) > 0 {
			handlers := make([]slog.Handler, 0, len(lc.Handlers))
			for _, ref := range lc.Handlers {
				handlers = append(handlers, built[ref])
			}
			tree.SetHandlers(name, handlers...)
		}
		if lc.Propagate != nil {
			tree.SetPropagate(name, *lc.Propagate)
		}
		return nil
	}

	if c.Root != nil {
		if err := apply(RootLogger, *c.Root); err != nil {
			return closers, err
		}
	}
	for name, lc := range c.Loggers {
		if err := apply(name, lc); err != nil {
			return closers, err
		}
	}
	return closers, nil
}
