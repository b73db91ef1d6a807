package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"buildreport/internal/config"
)

// TestLoad_ExpandsEnvAndAppliesDefaults verifies env expansion and defaulting.
// Params: testing.T for assertions.
// Returns: none.
func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_API_KEY", "abcdef0123456789")

	path := writeConfig(t, `
[api]
key = "${TEST_API_KEY}"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.API.Key != "abcdef0123456789" {
		t.Fatalf("unexpected api.key: %q", cfg.API.Key)
	}
	if cfg.API.URL != "https://app.datadoghq.com/api/" {
		t.Fatalf("unexpected api.url default: %q", cfg.API.URL)
	}
	if got := cfg.API.Timeout.Duration; got != 10*time.Second {
		t.Fatalf("unexpected api.timeout default: %v", got)
	}
	if cfg.Telemetry.Metric != "build.job.duration" {
		t.Fatalf("unexpected telemetry.metric default: %q", cfg.Telemetry.Metric)
	}
	if cfg.Telemetry.Check != "build.job.status" {
		t.Fatalf("unexpected telemetry.check default: %q", cfg.Telemetry.Check)
	}
	if !cfg.Log.Console.Enabled {
		t.Fatalf("expected console logging to be enabled by default")
	}
	if cfg.Log.Console.Format != "line" {
		t.Fatalf("unexpected console format default: %q", cfg.Log.Console.Format)
	}
}

// TestLoad_ConfigDirMergesTomlFiles verifies config directory loading and file-order merge.
// Params: testing.T for assertions.
// Returns: none.
func TestLoad_ConfigDirMergesTomlFiles(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"00-api.toml": `
[api]
key = "k-from-first"
timeout = "3s"
`,
		"10-intake.toml": `
[intake]
enabled = true
listen = "127.0.0.1:9125"
`,
		"90-notes.txt": `ignored, wrong extension`,
	})

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load config dir: %v", err)
	}

	if cfg.API.Key != "k-from-first" {
		t.Fatalf("unexpected api.key: %q", cfg.API.Key)
	}
	if got := cfg.API.Timeout.Duration; got != 3*time.Second {
		t.Fatalf("unexpected api.timeout: %v", got)
	}
	if !cfg.Intake.Enabled {
		t.Fatalf("expected intake to be enabled")
	}
	if cfg.Intake.Listen != "127.0.0.1:9125" {
		t.Fatalf("unexpected intake.listen: %q", cfg.Intake.Listen)
	}
	if cfg.Intake.Path != "/v1/build" {
		t.Fatalf("unexpected intake.path default: %q", cfg.Intake.Path)
	}
	if cfg.Intake.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected intake.max_body_bytes default: %d", cfg.Intake.MaxBodyBytes)
	}
}

// TestLoad_RejectsMissingCredential verifies the key/key_file requirement.
// Params: testing.T for assertions.
// Returns: none.
func TestLoad_RejectsMissingCredential(t *testing.T) {
	path := writeConfig(t, `
[api]
url = "https://dd.example.com/api/"
`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatalf("expected credential validation error")
	}
	if !strings.Contains(err.Error(), "api.key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestLoad_KeyFileAloneSatisfiesCredential verifies key_file as the only credential.
// Params: testing.T for assertions.
// Returns: none.
func TestLoad_KeyFileAloneSatisfiesCredential(t *testing.T) {
	path := writeConfig(t, `
[api]
key_file = "/etc/buildreport/api-key"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.KeyFile != "/etc/buildreport/api-key" {
		t.Fatalf("unexpected api.key_file: %q", cfg.API.KeyFile)
	}
}

// TestLoad_RejectsBadValues verifies field-level validation failures.
// Params: testing.T for assertions.
// Returns: none.
func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "api url scheme",
			body: "[api]\nkey = \"k\"\nurl = \"ftp://dd.example.com/\"\n",
			want: "api.url",
		},
		{
			name: "proxy url scheme",
			body: "[api]\nkey = \"k\"\n\n[proxy]\nurl = \"socks5://127.0.0.1:1080\"\n",
			want: "proxy.url",
		},
		{
			name: "intake listen",
			body: "[api]\nkey = \"k\"\n\n[intake]\nenabled = true\nlisten = \"no-port\"\n",
			want: "intake.listen",
		},
		{
			name: "intake path",
			body: "[api]\nkey = \"k\"\n\n[intake]\nenabled = true\npath = \"v1/build\"\n",
			want: "intake.path",
		},
		{
			name: "console level",
			body: "[api]\nkey = \"k\"\n\n[log.console]\nenabled = true\nlevel = \"verbose\"\n",
			want: "log.console.level",
		},
		{
			name: "file sink path",
			body: "[api]\nkey = \"k\"\n\n[log.file]\nenabled = true\n",
			want: "log.file.path",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got: %v", tc.want, err)
			}
		})
	}
}

// TestDuration_UnmarshalText verifies duration parsing edge cases.
// Params: testing.T for assertions.
// Returns: none.
func TestDuration_UnmarshalText(t *testing.T) {
	var d config.Duration
	if err := d.UnmarshalText([]byte(" 90s ")); err != nil {
		t.Fatalf("parse duration: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Fatalf("unexpected duration: %v", d.Duration)
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}

// writeConfig writes one TOML config file into a temp dir.
// Params: t test handle; body TOML content.
// Returns: path to the written file.
func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// writeConfigDir writes multiple config snippets into a temp dir.
// Params: t test handle; files name to content mapping.
// Returns: path to the directory.
func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write config %q: %v", name, err)
		}
	}
	return dir
}
