package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv pins every variable a command may read so tests do not depend
// on the developer's shell or on values loaded by an earlier test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"CSVTRANS_ENV_FILE":       "",
		"ENVIRONMENT":             "test",
		"LOG_LEVEL":               "error",
		"CSVTRANS_BACKEND":        "local_chat",
		"CSVTRANS_MODEL":          "",
		"CSVTRANS_PROMPT":         "",
		"OPENAI_API_KEY":          "",
		"OLLAMA_ADDRESS":          "localhost:11434",
		"DATABASE_URL":            "",
		"LIBRETRANSLATE_FALLBACK": "transport",
	} {
		t.Setenv(key, value)
	}
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Fatalf("unexpected exit code: got %d want 2", code)
	}
	if !strings.Contains(errOut.String(), "csvtrans <command>") {
		t.Fatalf("expected usage, got %q", errOut.String())
	}

	errOut.Reset()
	if code := run([]string{"frobnicate"}, &out, &errOut); code != 2 {
		t.Fatalf("unexpected exit code: got %d want 2", code)
	}
	if !strings.Contains(errOut.String(), "unknown command: frobnicate") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}

	if code := run([]string{"help"}, &out, &errOut); code != 0 {
		t.Fatalf("unexpected exit code for help: got %d want 0", code)
	}
}

func TestTranslateRequiresInput(t *testing.T) {
	isolateEnv(t)

	var out, errOut bytes.Buffer
	if code := run([]string{"translate"}, &out, &errOut); code != 2 {
		t.Fatalf("unexpected exit code: got %d want 2", code)
	}
	if !strings.Contains(errOut.String(), "--in is required") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestTranslateBlocksMissingCredential(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("Hello\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outPath := filepath.Join(dir, "out.csv")

	var out, errOut bytes.Buffer
	code := run([]string{"translate", "--in", in, "--out", outPath, "--backend", "openai", "--model", "gpt-4o-mini"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("unexpected exit code: got %d want 2 (stderr=%s)", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "missing credential") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestTranslateWithLocalChat(t *testing.T) {
	isolateEnv(t)

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		text := req.Messages[len(req.Messages)-1].Content
		if text == "boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": strings.ToUpper(text)},
		})
	}))
	defer ollama.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("Hello,\nWorld,boom\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("CSVTRANS_MODEL=llama3\nCSVTRANS_PROMPT=shout\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	outPath := filepath.Join(dir, "out.csv")

	var out, errOut bytes.Buffer
	code := run([]string{
		"translate",
		"--env", envFile,
		"--in", in,
		"--out", outPath,
		"--backend", "ollama",
		"--address", ollama.Listener.Addr().String(),
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("unexpected exit code: got %d want 0 (stderr=%s)", code, errOut.String())
	}

	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "\xef\xbb\xbf,0,1\n0,HELLO,\n1,WORLD,boom\n"
	if string(written) != want {
		t.Fatalf("unexpected output: got %q want %q", written, want)
	}

	stdout := out.String()
	if !strings.Contains(stdout, "Completed: 1/2\nCompleted: 2/2\n") {
		t.Fatalf("unexpected progress output: %q", stdout)
	}
	if !strings.Contains(stdout, "translated=2 failed=1 empty=1") {
		t.Fatalf("unexpected summary: %q", stdout)
	}
	if !strings.Contains(errOut.String(), "row 2 column 2") {
		t.Fatalf("expected cell failure notice, got %q", errOut.String())
	}
}

func TestTranslateDeadlineExitsNonZero(t *testing.T) {
	isolateEnv(t)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer slow.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("Hello,World\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outPath := filepath.Join(dir, "out.csv")

	var out, errOut bytes.Buffer
	code := run([]string{
		"translate",
		"--in", in,
		"--out", outPath,
		"--backend", "ollama",
		"--model", "llama3",
		"--address", slow.Listener.Addr().String(),
		"--timeout", "100ms",
	}, &out, &errOut)
	if code != 1 {
		t.Fatalf("unexpected exit code: got %d want 1 (stderr=%s)", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "Run interrupted") {
		t.Fatalf("expected interruption notice, got %q", errOut.String())
	}

	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "\xef\xbb\xbf,0,1\n0,Hello,World\n"
	if string(written) != want {
		t.Fatalf("unexpected output: got %q want %q", written, want)
	}
}

func TestModelsCommand(t *testing.T) {
	isolateEnv(t)

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"qwen2:7b"}]}`))
	}))
	defer ollama.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"models", "--address", ollama.Listener.Addr().String(), "--format", "json"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("unexpected exit code: got %d want 0 (stderr=%s)", code, errOut.String())
	}
	var payload struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(payload.Items) != 2 || payload.Items[0] != "llama3:8b" {
		t.Fatalf("unexpected models: %v", payload.Items)
	}
}

func TestModelsCommandUnreachable(t *testing.T) {
	isolateEnv(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	address := closed.Listener.Addr().String()
	closed.Close()

	var out, errOut bytes.Buffer
	if code := run([]string{"models", "--address", address}, &out, &errOut); code != 1 {
		t.Fatalf("unexpected exit code: got %d want 1", code)
	}
	if !strings.Contains(errOut.String(), "Could not list models") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestBackendsCommand(t *testing.T) {
	isolateEnv(t)

	var out, errOut bytes.Buffer
	if code := run([]string{"backends"}, &out, &errOut); code != 0 {
		t.Fatalf("unexpected exit code: got %d want 0 (stderr=%s)", code, errOut.String())
	}
	stdout := out.String()
	for _, want := range []string{"cloud_chat", "dedicated", "local_chat", "gpt-4o-mini"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output %q", want, stdout)
		}
	}
}

func TestRunsCommandWithoutLedger(t *testing.T) {
	isolateEnv(t)

	var out, errOut bytes.Buffer
	if code := run([]string{"runs"}, &out, &errOut); code != 2 {
		t.Fatalf("unexpected exit code: got %d want 2", code)
	}
	if !strings.Contains(errOut.String(), "DATABASE_URL is not set") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}
