package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig pins the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default OutputDir is output", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputDir != "output" {
			t.Errorf("expected OutputDir to be 'output', got '%s'", cfg.OutputDir)
		}
	})

	t.Run("default UserAgent is XY", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != "XY" {
			t.Errorf("expected UserAgent to be 'XY', got '%s'", cfg.UserAgent)
		}
	})

	t.Run("default RequestTimeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected RequestTimeout to be 30s, got %v", cfg.RequestTimeout)
		}
	})

	t.Run("domain restriction is on", func(t *testing.T) {
		t.Parallel()
		if !cfg.DomainRestriction {
			t.Error("expected DomainRestriction to be true")
		}
	})

	t.Run("chunking defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxTokens != 500 {
			t.Errorf("expected MaxTokens to be 500, got %d", cfg.MaxTokens)
		}
		if cfg.Encoding != "cl100k_base" {
			t.Errorf("expected Encoding to be cl100k_base, got %s", cfg.Encoding)
		}
		if cfg.TailPolicy != "flush" {
			t.Errorf("expected TailPolicy to be flush, got %s", cfg.TailPolicy)
		}
		if cfg.KeepEmptyChunks {
			t.Error("expected KeepEmptyChunks to be false")
		}
	})

	t.Run("rebuild is off and ledger is on", func(t *testing.T) {
		t.Parallel()
		if cfg.Rebuild {
			t.Error("expected Rebuild to be false")
		}
		if !cfg.Ledger {
			t.Error("expected Ledger to be true")
		}
		if cfg.LedgerDir != XDGDataDir() {
			t.Errorf("expected LedgerDir to be %s, got %s", XDGDataDir(), cfg.LedgerDir)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Target = "https://example.com/"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"http seed", func(c *Config) { c.Target = "http://example.com" }, nil},
		{"zero timeout uses client default", func(c *Config) { c.RequestTimeout = 0 }, nil},
		{"upper case tail policy", func(c *Config) { c.TailPolicy = "DROP" }, nil},
		{"empty target", func(c *Config) { c.Target = "" }, ErrNoTarget},
		{"relative seed", func(c *Config) { c.Target = "/docs" }, ErrInvalidSeedURL},
		{"ftp seed", func(c *Config) { c.Target = "ftp://example.com/" }, ErrInvalidSeedURL},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"unknown tail policy", func(c *Config) { c.TailPolicy = "keep" }, ErrInvalidTailPolicy},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("ValidateOptions ignores target", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ValidateOptions(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func boolPtr(b bool) *bool { return &b }

// TestFileGetSiteConfig tests merging defaults with site overrides.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			MustInclude: "/docs",
			MaxTokens:   300,
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				MaxTokens:         800,
				DomainRestriction: boolPtr(false),
				UserAgent:         "corpus-bot",
			},
		},
	}

	t.Run("site overrides defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("example.com")
		if sc.MustInclude != "/docs" {
			t.Errorf("expected inherited MustInclude, got %q", sc.MustInclude)
		}
		if sc.MaxTokens != 800 {
			t.Errorf("expected MaxTokens 800, got %d", sc.MaxTokens)
		}
		if sc.DomainRestriction == nil || *sc.DomainRestriction {
			t.Error("expected DomainRestriction override to false")
		}
		if sc.UserAgent != "corpus-bot" {
			t.Errorf("expected UserAgent corpus-bot, got %q", sc.UserAgent)
		}
	})

	t.Run("unknown site gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("other.org")
		if sc.MaxTokens != 300 || sc.MustInclude != "/docs" || sc.DomainRestriction != nil {
			t.Errorf("expected defaults, got %+v", sc)
		}
	})

	t.Run("subdomain is a different site", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("www.example.com")
		if sc.MaxTokens != 300 {
			t.Errorf("expected defaults for subdomain, got %d", sc.MaxTokens)
		}
	})
}

func TestConfigApplySite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ApplySite(SiteConfig{})
	if *cfg != *NewConfig() {
		t.Errorf("empty SiteConfig changed config: %+v", cfg)
	}

	cfg.ApplySite(SiteConfig{
		MustInclude:       "/blog",
		DomainRestriction: boolPtr(false),
		MaxTokens:         1000,
		UserAgent:         "bot",
	})
	if cfg.MustInclude != "/blog" || cfg.DomainRestriction || cfg.MaxTokens != 1000 || cfg.UserAgent != "bot" {
		t.Errorf("ApplySite() = %+v", cfg)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sitecorpus")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := write(t, `defaults:
  maxTokens: 400
  mustInclude: "/docs"
sites:
  example.com:
    maxTokens: 700
    domainRestriction: false
    userAgent: "corpus-bot"
`)
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.MaxTokens != 400 {
			t.Errorf("expected default maxTokens 400, got %d", cfg.Defaults.MaxTokens)
		}
		if cfg.Defaults.MustInclude != "/docs" {
			t.Errorf("expected default mustInclude, got %q", cfg.Defaults.MustInclude)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.MaxTokens != 700 {
			t.Errorf("expected site maxTokens 700, got %d", site.MaxTokens)
		}
		if site.DomainRestriction == nil || *site.DomainRestriction {
			t.Error("expected domainRestriction false")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(write(t, `invalid: yaml: content: [}`)); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(write(t, "defaults:\n  maxToken: 100\n"))
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
		if !strings.Contains(err.Error(), "maxToken") {
			t.Errorf("expected error to name the key, got %v", err)
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile(write(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("defaults: {}"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("expected %s in current directory, got %q", DefaultConfigFile, got)
		}
	})
}

func TestFirstExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdgConfig := filepath.Join(dir, AppName, XDGConfigFile)
	if err := os.MkdirAll(filepath.Dir(xdgConfig), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xdgConfig, []byte("defaults: {}"), 0600); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, DefaultConfigFile)
	if got := firstExisting([]string{missing, filepath.Dir(xdgConfig), xdgConfig}); got != xdgConfig {
		t.Errorf("expected fallback to %q, got %q", xdgConfig, got)
	}
	if got := firstExisting([]string{missing}); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG data dir to end in %s, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected XDG config dir to end in %s, got %q", AppName, dir)
	}
}
