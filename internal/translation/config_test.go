package translation

import (
	"errors"
	"testing"
)

func TestBuildConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := BuildConfig(KindDedicated, Params{Target: " DE "})
	if err != nil {
		t.Fatalf("BuildConfig returned error: %v", err)
	}
	dedicated, ok := cfg.(DedicatedConfig)
	if !ok {
		t.Fatalf("unexpected config type: %T", cfg)
	}
	if dedicated.Address != DefaultDedicatedAddress || dedicated.Source != AutoSourceLanguage ||
		dedicated.Target != "de" || dedicated.Fallback != FallbackOnTransport {
		t.Fatalf("unexpected defaults: %+v", dedicated)
	}

	cfg, err = BuildConfig(KindCloudChat, Params{Model: "gpt-4o", APIKey: "k"})
	if err != nil {
		t.Fatalf("BuildConfig returned error: %v", err)
	}
	if cfg.(CloudChatConfig).BaseURL != DefaultCloudBaseURL {
		t.Fatalf("unexpected base url: got %q", cfg.(CloudChatConfig).BaseURL)
	}

	cfg, err = BuildConfig(KindLocalChat, Params{Model: "llama3"})
	if err != nil {
		t.Fatalf("BuildConfig returned error: %v", err)
	}
	if cfg.(LocalChatConfig).Address != DefaultLocalAddress {
		t.Fatalf("unexpected address: got %q", cfg.(LocalChatConfig).Address)
	}

	if _, err := BuildConfig(KindDedicated, Params{Target: "en", Fallback: "sometimes"}); err == nil {
		t.Fatalf("expected error for unknown fallback policy")
	}
	if _, err := BuildConfig("carrier-pigeon", Params{}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestBuildConfigKeepsServiceLanguageCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"tl", "sh", "zh-Hant", "pt-BR"} {
		cfg, err := BuildConfig(KindDedicated, Params{Source: code, Target: code})
		if err != nil {
			t.Fatalf("BuildConfig(%q) returned error: %v", code, err)
		}
		dedicated := cfg.(DedicatedConfig)
		if dedicated.Source != code || dedicated.Target != code {
			t.Fatalf("unexpected codes for %q: got source %q target %q", code, dedicated.Source, dedicated.Target)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  BackendConfig
		want error
	}{
		{name: "cloud without key", cfg: CloudChatConfig{Model: "gpt-4o"}, want: ErrMissingCredential},
		{name: "cloud without model", cfg: CloudChatConfig{APIKey: "k"}, want: ErrMissingField},
		{name: "cloud ok", cfg: CloudChatConfig{Model: "gpt-4o", APIKey: "k"}},
		{name: "local without model", cfg: LocalChatConfig{Address: "x"}, want: ErrMissingField},
		{name: "local ok", cfg: LocalChatConfig{Model: "llama3"}},
		{name: "dedicated without target", cfg: DedicatedConfig{Source: "auto"}, want: ErrMissingField},
		{name: "dedicated ok", cfg: DedicatedConfig{Target: "en"}},
	}
	for _, tc := range tests {
		err := tc.cfg.Validate()
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: unexpected error: got %v want %v", tc.name, err, tc.want)
		}
	}
}

func TestFallbackPolicyAllows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy    FallbackPolicy
		transport bool
		want      bool
	}{
		{FallbackNever, true, false},
		{FallbackNever, false, false},
		{FallbackOnTransport, true, true},
		{FallbackOnTransport, false, false},
		{FallbackAlways, true, true},
		{FallbackAlways, false, true},
	}
	for _, tc := range tests {
		if got := tc.policy.Allows(tc.transport); got != tc.want {
			t.Fatalf("unexpected Allows(%v) for %s: got %v want %v", tc.transport, tc.policy, got, tc.want)
		}
	}
}

func TestHostAddress(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"localhost:5000":          "localhost:5000",
		"http://localhost:11434/": "localhost:11434",
		"https://translate.local": "translate.local",
		" example.org:8080/ ":     "example.org:8080",
		"":                        "",
	}
	for raw, want := range tests {
		if got := HostAddress(raw); got != want {
			t.Fatalf("unexpected HostAddress(%q): got %q want %q", raw, got, want)
		}
	}
	if got := ServiceURL("https", "http://h:1", "/translate"); got != "https://h:1/translate" {
		t.Fatalf("unexpected ServiceURL: got %q", got)
	}
	if got := chatCompletionsURL("https://api.openai.com/v1/"); got != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("unexpected chat url: got %q", got)
	}
}

func TestParamsMerge(t *testing.T) {
	t.Parallel()

	base := Params{Model: "llama3", Address: "localhost:11434", Target: "en"}
	merged := base.Merge(Params{Address: "gpu:11434", Target: "  ", DetectSource: true})
	want := Params{Model: "llama3", Address: "gpu:11434", Target: "en", DetectSource: true}
	if merged != want {
		t.Fatalf("unexpected merge: got %+v want %+v", merged, want)
	}
}
