package config

import (
	"path/filepath"
	"testing"
)

func TestSettings_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "judgecore.json")

	s := Default()
	rss := int64(262144)
	s.RSSLimitCeiling = &rss
	s.BaseUser = "system_u"
	s.BaseRole = "system_r"

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got.SandboxPrefix != s.SandboxPrefix || got.CompileLevel != s.CompileLevel || got.RunLevel != s.RunLevel {
		t.Errorf("Load() = %+v, want %+v", got, s)
	}
	if got.RSSLimitCeiling == nil || *got.RSSLimitCeiling != rss {
		t.Errorf("Load().RSSLimitCeiling = %v, want %d", got.RSSLimitCeiling, rss)
	}
	if got.TimeLimitCeiling != nil {
		t.Errorf("Load().TimeLimitCeiling = %v, want nil", got.TimeLimitCeiling)
	}
}

func TestSettings_Base(t *testing.T) {
	s := Default()
	s.BaseUser = "system_u"
	s.BaseRole = "system_r"

	base, err := s.Base()
	if err != nil {
		t.Fatalf("Base() error: %v", err)
	}
	if base.User != "system_u" || base.Role != "system_r" {
		t.Errorf("Base() = %+v, want system_u:system_r", base)
	}
}

func TestSettings_JudgeConfig(t *testing.T) {
	s := Default()
	jc := s.JudgeConfig()
	if jc.TimeGraceFactor != s.TimeGraceFactor || jc.RSSGraceFactor != s.RSSGraceFactor || jc.VMGraceFactor != s.VMGraceFactor {
		t.Errorf("JudgeConfig() grace factors = %+v, want match of %+v", jc, s)
	}
	if jc.TimeLimit != nil || jc.RSSLimit != nil || jc.VMLimit != nil {
		t.Errorf("JudgeConfig() ceilings = %+v, want all nil", jc)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}
