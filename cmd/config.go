// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// servolink.toml key mapping to connection and bus settings. Flags given on
// the command line always win over file values.
type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	ID          int    `toml:"id"`
	TimeoutMS   int    `toml:"timeout_ms"`
}

// defaultConfigPath returns ~/.config/servolink.toml, or "" when the home
// directory cannot be resolved.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "servolink.toml")
}

// loadFileConfig parses a servolink TOML config file. The returned MetaData
// lets the caller distinguish absent keys from zero values.
func loadFileConfig(path string) (fileConfig, toml.MetaData, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("timeout_ms") && raw.TimeoutMS <= 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("load config %s: timeout_ms must be positive", path)
	}
	if meta.IsDefined("baud") && raw.Baud <= 0 {
		return fileConfig{}, toml.MetaData{}, fmt.Errorf("load config %s: baud must be positive", path)
	}

	return raw, meta, nil
}

// applyFileConfig overlays file values under any flags the user did not set.
// An explicit --config that does not exist is an error; the default path is
// optional.
func applyFileConfig(cmd *cobra.Command) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return nil
	}

	raw, meta, err := loadFileConfig(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if meta.IsDefined("port") && !flags.Changed("port") {
		portName = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") && !flags.Changed("baud") {
		baudRate = raw.Baud
	}
	if meta.IsDefined("url") && !flags.Changed("url") {
		wsURL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("username") && !flags.Changed("username") {
		wsUsername = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("no_ssl_verify") && !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = raw.NoSSLVerify
	}
	if meta.IsDefined("id") && !flags.Changed("id") {
		servoID = raw.ID
	}
	if meta.IsDefined("timeout_ms") && !flags.Changed("timeout") {
		replyWait = time.Duration(raw.TimeoutMS) * time.Millisecond
	}
	return nil
}
