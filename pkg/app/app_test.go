package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flemzord/fancyjob/internal/commitmsg"
	"github.com/flemzord/fancyjob/internal/config"
)

func newTestApp(t *testing.T, yaml string) *App {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "fancyjob.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := New(RunParams{ConfigPath: path, Version: "test-build"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNew_LoadsAndValidates(t *testing.T) {
	a := newTestApp(t, "version: \"1\"\nhistory:\n  path: \"off\"\n")

	if a.cfg.Counter.Path != "number.txt" {
		t.Errorf("counter path = %q", a.cfg.Counter.Path)
	}
	if a.hist != nil {
		t.Error("history should be disabled")
	}
	if a.version != "test-build" {
		t.Errorf("version = %q", a.version)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "fancyjob.yaml")
	if err := os.WriteFile(path, []byte("version: \"9\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := New(RunParams{ConfigPath: path}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMessageGenerator_DateByDefault(t *testing.T) {
	t.Setenv(UseLLMEnv, "")
	os.Unsetenv(UseLLMEnv)
	a := newTestApp(t, "version: \"1\"\nhistory:\n  path: \"off\"\n")

	gen, err := a.messageGenerator()
	if err != nil {
		t.Fatalf("messageGenerator() failed: %v", err)
	}
	if _, ok := gen.(commitmsg.DateGenerator); !ok {
		t.Errorf("generator = %T, want DateGenerator", gen)
	}
}

func TestMessageGenerator_LLMToggleRequiresConfig(t *testing.T) {
	t.Setenv(UseLLMEnv, "1")
	a := newTestApp(t, "version: \"1\"\nhistory:\n  path: \"off\"\n")

	if _, err := a.messageGenerator(); err == nil {
		t.Fatal("expected error when commit.llm is missing")
	}
}

func TestMessageGenerator_LLMFromConfig(t *testing.T) {
	t.Setenv(UseLLMEnv, "1")
	t.Setenv("FANCYJOB_TEST_API_KEY", "secret")

	a := newTestApp(t, `version: "1"
history:
  path: "off"
commit:
  llm:
    base_url: https://api.example.com/v1
    api_key_env: FANCYJOB_TEST_API_KEY
    model: test-model
`)

	gen, err := a.messageGenerator()
	if err != nil {
		t.Fatalf("messageGenerator() failed: %v", err)
	}
	if _, ok := gen.(*commitmsg.LLMGenerator); !ok {
		t.Errorf("generator = %T, want *LLMGenerator", gen)
	}
}

func TestHistoryPath(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "runs.db")
	a := newTestApp(t, "version: \"1\"\nhistory:\n  path: "+custom+"\n")
	if got := a.historyPath(); got != custom {
		t.Errorf("historyPath() = %q", got)
	}

	a.cfg.History = config.HistoryConfig{Path: "off"}
	if got := a.historyPath(); got != "" {
		t.Errorf("historyPath() with off = %q", got)
	}
}

func TestInRepo(t *testing.T) {
	a := newTestApp(t, "version: \"1\"\nhistory:\n  path: \"off\"\ngit:\n  dir: /work/repo\n")

	if got := a.inRepo("number.txt"); got != "/work/repo/number.txt" {
		t.Errorf("inRepo(relative) = %q", got)
	}
	if got := a.inRepo("/tmp/number.txt"); got != "/tmp/number.txt" {
		t.Errorf("inRepo(absolute) = %q", got)
	}
}
