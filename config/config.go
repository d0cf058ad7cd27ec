// Package config loads and saves the settings judgecore runs under: grace
// factors, absolute resource ceilings, and the base security context,
// adapted from the teacher's atomic JSON state file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"judgecore/judge"
	"judgecore/label"
)

// Settings is the on-disk configuration for a judgecore instance.
type Settings struct {
	// SandboxPrefix is stored with the settings and saved and loaded with
	// them. Sessions do not read it: runner names every sandbox directory
	// with its own fixed ".judgecore-" prefix.
	SandboxPrefix string `json:"sandboxPrefix"`

	// CompileLevel and RunLevel are the MLS levels staged files and
	// running programs are labeled with, compile broader than run.
	CompileLevel string `json:"compileLevel"`
	RunLevel     string `json:"runLevel"`

	// BaseUser and BaseRole fill in the user:role portion of every label
	// this instance constructs; BaseUser empty means "read from the
	// running process's own context at startup."
	BaseUser string `json:"baseUser,omitempty"`
	BaseRole string `json:"baseRole,omitempty"`

	TimeGraceFactor float64 `json:"timeGraceFactor"`
	RSSGraceFactor  float64 `json:"rssGraceFactor"`
	VMGraceFactor   float64 `json:"vmGraceFactor"`

	// TimeLimitCeiling, RSSLimitCeiling and VMLimitCeiling are optional
	// absolute ceilings no grace-padded limit may exceed.
	TimeLimitCeiling *float64 `json:"timeLimitCeiling,omitempty"`
	RSSLimitCeiling  *int64   `json:"rssLimitCeiling,omitempty"`
	VMLimitCeiling   *int64   `json:"vmLimitCeiling,omitempty"`
}

// Default returns the settings gulag's Judge.__init__ defaults to, with
// no absolute ceilings and levels that narrow the full category range to
// the first two categories between compile and run.
func Default() Settings {
	return Settings{
		SandboxPrefix:   ".judgecore-",
		CompileLevel:    "s0:c0.c1023",
		RunLevel:        "s0:c0,c1",
		TimeGraceFactor: 5.0,
		RSSGraceFactor:  5,
		VMGraceFactor:   5,
	}
}

// JudgeConfig converts Settings to a judge.Config.
func (s Settings) JudgeConfig() judge.Config {
	return judge.Config{
		TimeGraceFactor: s.TimeGraceFactor,
		RSSGraceFactor:  s.RSSGraceFactor,
		VMGraceFactor:   s.VMGraceFactor,
		TimeLimit:       s.TimeLimitCeiling,
		RSSLimit:        s.RSSLimitCeiling,
		VMLimit:         s.VMLimitCeiling,
	}
}

// Base resolves the label.Context this instance's user/role portion
// should use: the configured BaseUser/BaseRole if set, otherwise the
// running process's own current label.
func (s Settings) Base() (label.Context, error) {
	if s.BaseUser != "" && s.BaseRole != "" {
		return label.Context{User: s.BaseUser, Role: s.BaseRole}, nil
	}
	return label.CurrentBase()
}

// Load reads Settings from a JSON file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s to path atomically: marshal, write to a temp file in the
// same directory, fsync, chmod, then rename over the target — the same
// crash-safe sequence the teacher's state file save uses.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}
