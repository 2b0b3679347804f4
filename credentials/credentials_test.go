package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeCreds(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.toml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("writing credentials file: %v", err)
	}
	return path
}

func TestStandardPaths(t *testing.T) {
	paths := StandardPaths()
	if len(paths) < 2 {
		t.Fatalf("expected at least 2 standard paths, got %d", len(paths))
	}
	if paths[0] != "credentials.toml" {
		t.Errorf("first path should be credentials.toml, got %s", paths[0])
	}
}

func TestLoadFileProviderSections(t *testing.T) {
	path := writeCreds(t, `
[anthropic]
api_key = "sk-ant-test123"

[openai]
api_key = "sk-openai-test456"
`, 0400)

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := creds.GetAPIKey("anthropic"); got != "sk-ant-test123" {
		t.Errorf("anthropic key = %q, want sk-ant-test123", got)
	}
	if got := creds.GetAPIKey("openai"); got != "sk-openai-test456" {
		t.Errorf("openai key = %q, want sk-openai-test456", got)
	}
}

func TestLoadFileGenericLLMSection(t *testing.T) {
	path := writeCreds(t, `
[llm]
api_key = "generic-llm-key"
`, 0400)

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, provider := range []string{"anthropic", "openai", "google"} {
		if got := creds.GetAPIKey(provider); got != "generic-llm-key" {
			t.Errorf("%s key = %q, want generic-llm-key", provider, got)
		}
	}
}

func TestLoadFileProviderOverridesLLM(t *testing.T) {
	path := writeCreds(t, `
[llm]
api_key = "generic-key"

[anthropic]
api_key = "anthropic-specific-key"
`, 0400)

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := creds.GetAPIKey("anthropic"); got != "anthropic-specific-key" {
		t.Errorf("anthropic key = %q, want anthropic-specific-key", got)
	}
	if got := creds.GetAPIKey("google"); got != "generic-key" {
		t.Errorf("google key = %q, want generic-key (from [llm])", got)
	}
}

func TestLoadFileEncryptionSection(t *testing.T) {
	path := writeCreds(t, `
[encryption]
key = "content-secret"

[llm]
api_key = "k"
`, 0400)

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := creds.GetEncryptionKey(); got != "content-secret" {
		t.Errorf("encryption key = %q, want content-secret", got)
	}

	var nilCreds *Credentials
	if nilCreds.GetEncryptionKey() != "" {
		t.Error("nil credentials should have no encryption key")
	}
}

func TestLoadFileInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission check not applicable on Windows")
	}

	for _, perm := range []os.FileMode{0644, 0600} {
		path := writeCreds(t, "[llm]\napi_key = \"secret\"\n", perm)
		_, err := LoadFile(path)
		if !errors.Is(err, ErrInsecurePermissions) {
			t.Errorf("mode %04o: err = %v, want ErrInsecurePermissions", perm, err)
		}
	}

	path := writeCreds(t, "[llm]\napi_key = \"secret\"\n", 0400)
	if _, err := LoadFile(path); err != nil {
		t.Errorf("0400 should be allowed: %v", err)
	}
}

func TestGetAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	creds := &Credentials{providers: make(map[string]*ProviderCreds)}
	if got := creds.GetAPIKey("anthropic"); got != "env-anthropic" {
		t.Errorf("GetAPIKey(anthropic) = %q, want env-anthropic", got)
	}

	var nilCreds *Credentials
	if got := nilCreds.GetAPIKey("anthropic"); got != "env-anthropic" {
		t.Errorf("nil creds GetAPIKey = %q, want env-anthropic", got)
	}
}

func TestGetAPIKeyFilePriority(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-value")

	creds := &Credentials{
		providers: map[string]*ProviderCreds{
			"anthropic": {APIKey: "creds-value"},
		},
	}
	if got := creds.GetAPIKey("anthropic"); got != "creds-value" {
		t.Errorf("GetAPIKey(anthropic) = %q, want creds-value", got)
	}
}

func TestLoadNoFile(t *testing.T) {
	origDir, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(origDir)

	creds, path, err := Load()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if creds != nil || path != "" {
		t.Errorf("expected no credentials, got creds=%v path=%q", creds, path)
	}
}

func TestLoadFromCurrentDir(t *testing.T) {
	origDir, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(origDir)

	content := "[llm]\napi_key = \"from-current-dir\"\n"
	if err := os.WriteFile("credentials.toml", []byte(content), 0400); err != nil {
		t.Fatalf("writing credentials file: %v", err)
	}

	creds, path, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds == nil || creds.GetAPIKey("anthropic") != "from-current-dir" {
		t.Fatalf("credentials not loaded from current dir: %v", creds)
	}
	if path != "credentials.toml" {
		t.Errorf("path = %q, want credentials.toml", path)
	}
}
