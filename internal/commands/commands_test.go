package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bizcopilot/copilot/internal/api"
	"github.com/bizcopilot/copilot/internal/config"
	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/models"
	"github.com/bizcopilot/copilot/internal/tui"
)

// fakeTUI records what the commands would show
type fakeTUI struct {
	chat       *tui.ChatConfig
	configCfg  *config.Config
	configPath string
	err        error
}

func (f *fakeTUI) RunChat(cfg tui.ChatConfig) error {
	f.chat = &cfg
	return f.err
}

func (f *fakeTUI) RunConfig(cfg config.Config, configPath string) error {
	f.configCfg = &cfg
	f.configPath = configPath
	return f.err
}

type testDeps struct {
	*Dependencies
	tui    *fakeTUI
	client *api.MockClient
	cfg    config.Config
	copied []string
}

func newTestDeps(client *api.MockClient) *testDeps {
	td := &testDeps{
		tui:    &fakeTUI{},
		client: client,
		cfg:    config.DefaultConfig(),
	}
	td.Dependencies = &Dependencies{
		Client:     client,
		TUI:        td.tui,
		LoadConfig: func() (config.Config, error) { return td.cfg, nil },
		SaveConfig: func(config.Config) error { return nil },
		Copy: func(s string) error {
			td.copied = append(td.copied, s)
			return nil
		},
		NoLogFile: true,
	}
	return td
}

// run executes the command tree and returns stdout and stderr
func run(t *testing.T, deps *Dependencies, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(deps)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCmd(newTestDeps(&api.MockClient{}).Dependencies)
	if cmd.Use != "copilot" {
		t.Errorf("Expected use 'copilot', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}

	want := []string{"chat", "ask", "health", "config", "contract", "post", "finance", "summary", "company", "taxes"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"api-url", "timeout", "log-level"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing global flag --%s", flag)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	td := newTestDeps(&api.MockClient{})
	out, _, err := run(t, td.Dependencies, "", "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "copilot "+Version) {
		t.Errorf("output = %q", out)
	}
	if td.tui.chat != nil {
		t.Error("--version should not start the chat")
	}
}

func TestRootCommand_StartsChat(t *testing.T) {
	td := newTestDeps(&api.MockClient{BaseURLVal: "http://backend:8000"})
	if _, _, err := run(t, td.Dependencies, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if td.tui.chat == nil {
		t.Fatal("chat TUI was not started")
	}
	if td.tui.chat.Session.Mode() != models.ModeGeneral {
		t.Errorf("mode = %q", td.tui.chat.Session.Mode())
	}
	if td.tui.chat.BaseURL != "http://backend:8000" {
		t.Errorf("BaseURL = %q", td.tui.chat.BaseURL)
	}
	if td.tui.chat.Dispatcher == nil || td.tui.chat.Health == nil {
		t.Error("dispatcher and health checker should be wired")
	}
}

func TestChatCmd_Mode(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		args       []string
		want       models.Mode
		wantErr    bool
	}{
		{"flag", "", []string{"chat", "--mode", "legal"}, models.ModeLegal, false},
		{"config default", "finance", []string{"chat"}, models.ModeFinance, false},
		{"flag wins", "finance", []string{"chat", "-m", "marketing"}, models.ModeMarketing, false},
		{"unknown", "", []string{"chat", "--mode", "astrology"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := newTestDeps(&api.MockClient{})
			td.cfg.DefaultMode = tt.configured
			_, _, err := run(t, td.Dependencies, "", tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := td.tui.chat.Session.Mode(); got != tt.want {
				t.Errorf("mode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatCmd_AutoCopyFromConfig(t *testing.T) {
	td := newTestDeps(&api.MockClient{})
	td.cfg.CopyToClipboard = true
	if _, _, err := run(t, td.Dependencies, "", "chat"); err != nil {
		t.Fatal(err)
	}
	if !td.tui.chat.AutoCopy {
		t.Error("AutoCopy should follow copy_to_clipboard")
	}
}

func TestAskCmd(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{ConversationID: 42, Answer: "Рекомендую УСН"}}
	td := newTestDeps(client)

	out, errOut, err := run(t, td.Dependencies, "", "ask", "Как выбрать налоговый режим для ИП?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Рекомендую УСН\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "conversation_id: 42") {
		t.Errorf("stderr = %q", errOut)
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d", len(reqs))
	}
	if reqs[0].Message != "Как выбрать налоговый режим для ИП?" || reqs[0].Mode != models.ModeGeneral {
		t.Errorf("request = %+v", reqs[0])
	}
	if reqs[0].ConversationID != nil {
		t.Error("first request should not carry a conversation id")
	}
}

func TestAskCmd_ConversationID(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{ConversationID: 7, Answer: "ok"}}
	td := newTestDeps(client)

	if _, _, err := run(t, td.Dependencies, "", "ask", "--conversation-id", "7", "--mode", "legal", "дальше"); err != nil {
		t.Fatal(err)
	}
	req := client.Requests()[0]
	if req.ConversationID == nil || *req.ConversationID != 7 {
		t.Errorf("conversation id = %v, want 7", req.ConversationID)
	}
	if req.Mode != models.ModeLegal {
		t.Errorf("mode = %q", req.Mode)
	}
}

func TestAskCmd_Input(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(file, []byte("из файла"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr error
	}{
		{"argument", "", []string{"ask", "из аргумента"}, "из аргумента", nil},
		{"stdin", "из stdin", []string{"ask"}, "из stdin", nil},
		{"file", "", []string{"ask", "-f", file}, "из файла", nil},
		{"empty", "   ", []string{"ask"}, "", apierrors.ErrEmptyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &api.MockClient{ChatVal: &models.ChatResponse{Answer: "ok"}}
			td := newTestDeps(client)
			_, _, err := run(t, td.Dependencies, tt.stdin, tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				if len(client.Requests()) != 0 {
					t.Error("no request should be sent")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := client.Requests()[0].Message; got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAskCmd_Errors(t *testing.T) {
	t.Run("server detail verbatim", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{ChatErr: &apierrors.APIError{StatusCode: 429, Detail: "rate limited"}})
		_, _, err := run(t, td.Dependencies, "", "ask", "hi")
		if err == nil || err.Error() != "rate limited" {
			t.Errorf("err = %v, want 'rate limited'", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		netErr := apierrors.NewNetworkError("chat", "/api/chat", errors.New("connection refused"))
		td := newTestDeps(&api.MockClient{ChatErr: netErr})
		_, _, err := run(t, td.Dependencies, "", "ask", "hi")
		if err == nil || !strings.HasPrefix(err.Error(), "Ошибка при отправке сообщения") {
			t.Errorf("err = %v", err)
		}
		if !apierrors.IsNetworkError(err) {
			t.Error("network error should stay inspectable")
		}
	})
}

func TestAskCmd_Copy(t *testing.T) {
	td := newTestDeps(&api.MockClient{ChatVal: &models.ChatResponse{Answer: "copy me"}})
	_, errOut, err := run(t, td.Dependencies, "", "ask", "--copy", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if len(td.copied) != 1 || td.copied[0] != "copy me" {
		t.Errorf("copied = %q", td.copied)
	}
	if !strings.Contains(errOut, "Скопировано") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestAskCmd_WritesMetrics(t *testing.T) {
	td := newTestDeps(&api.MockClient{ChatVal: &models.ChatResponse{Answer: "ok"}})
	td.cfg.MetricsFile = filepath.Join(t.TempDir(), "copilot.prom")

	if _, _, err := run(t, td.Dependencies, "", "ask", "hi"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(td.cfg.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `copilot_submissions_total{kind="chat"} 1`) {
		t.Errorf("metrics = %s", data)
	}
}

func TestActionCmds_FlagsFromCatalog(t *testing.T) {
	td := newTestDeps(&api.MockClient{})
	cmds := NewActionCmds(td.Dependencies, &globalOptions{})
	if len(cmds) != 6 {
		t.Fatalf("commands = %d, want 6", len(cmds))
	}
	for _, cmd := range cmds {
		for _, flag := range []string{"copy", "output"} {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s: missing --%s", cmd.Name(), flag)
			}
		}
	}

	post := cmds[1]
	if f := post.Flags().Lookup("business-description"); f == nil {
		t.Error("post: missing --business-description")
	}
	if f := post.Flags().Lookup("platform"); f == nil || f.DefValue != "general" {
		t.Error("post: --platform should default to general")
	}
}

func lastBody(t *testing.T, client *api.MockClient) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(client.LastBody(), &body); err != nil {
		t.Fatalf("invalid body %s: %v", client.LastBody(), err)
	}
	return body
}

func TestActionCmd_Summary(t *testing.T) {
	client := &api.MockClient{PostJSONVal: map[string]string{
		models.PathSummary: `{"summary":"Итог","tasks":["Позвонить"],"next_steps":[]}`,
	}}
	td := newTestDeps(client)

	out, _, err := run(t, td.Dependencies, "", "summary", "--text", "Протокол встречи", "--summary-type", "tasks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Итог\n\nЗадачи:\nПозвонить\n" {
		t.Errorf("stdout = %q", out)
	}
	if client.PostedPaths[0] != models.PathSummary {
		t.Errorf("path = %q", client.PostedPaths[0])
	}
	body := lastBody(t, client)
	if string(body["summary_type"]) != `"tasks"` {
		t.Errorf("summary_type = %s", body["summary_type"])
	}
}

func TestActionCmd_FinanceDescription(t *testing.T) {
	client := &api.MockClient{PostJSONVal: map[string]string{
		models.PathFinanceReport: `{"analysis":"ok","recommendations":[]}`,
	}}
	td := newTestDeps(client)

	if _, _, err := run(t, td.Dependencies, "", "finance", "--sales-data", "not json"); err != nil {
		t.Fatal(err)
	}
	body := lastBody(t, client)
	if string(body["sales_data"]) != `{"description":"not json"}` {
		t.Errorf("sales_data = %s", body["sales_data"])
	}
	if _, ok := body["expenses_data"]; ok {
		t.Error("blank expenses_data should be omitted")
	}
}

func TestActionCmd_TaxesRevenueOmitted(t *testing.T) {
	client := &api.MockClient{PostJSONVal: map[string]string{
		models.PathTaxConsultation: `{"answer":"Платите УСН","warnings":[]}`,
	}}
	td := newTestDeps(client)

	if _, _, err := run(t, td.Dependencies, "", "taxes", "--question", "Нужен ли НДС?", "--revenue", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := lastBody(t, client)["revenue"]; ok {
		t.Error("blank revenue should be omitted")
	}
}

func TestActionCmd_MissingRequired(t *testing.T) {
	client := &api.MockClient{}
	td := newTestDeps(client)

	_, _, err := run(t, td.Dependencies, "", "summary")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "--text") {
		t.Errorf("error should name the flag: %v", err)
	}
	if len(client.PostedPaths) != 0 {
		t.Error("no request should be sent")
	}
}

func TestActionCmd_StdinField(t *testing.T) {
	client := &api.MockClient{PostJSONVal: map[string]string{
		models.PathSummary: `{"summary":"s","tasks":[]}`,
	}}
	td := newTestDeps(client)

	if _, _, err := run(t, td.Dependencies, "длинный текст", "summary", "--text", "-"); err != nil {
		t.Fatal(err)
	}
	if string(lastBody(t, client)["text"]) != `"длинный текст"` {
		t.Errorf("body = %s", client.LastBody())
	}
}

func TestActionCmd_BackendError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"detail", &apierrors.APIError{StatusCode: 500, Detail: "boom"}, "Ошибка: boom"},
		{"no detail", errors.New("socket closed"), "Ошибка: Неизвестная ошибка"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := newTestDeps(&api.MockClient{PostJSONErr: tt.err})
			_, _, err := run(t, td.Dependencies, "", "company", "--company-name", "ООО Ромашка")
			if err == nil || err.Error() != tt.want {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestActionCmd_OutputFile(t *testing.T) {
	client := &api.MockClient{PostJSONVal: map[string]string{
		models.PathLegalContract: `{"contract_text":"ДОГОВОР АРЕНДЫ","warnings":[]}`,
	}}
	td := newTestDeps(client)
	path := filepath.Join(t.TempDir(), "contract.md")

	out, _, err := run(t, td.Dependencies, "", "contract",
		"--contract-type", "аренда", "--parties", "А и Б", "--subject", "офис", "-o", path, "--copy")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing a file, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ДОГОВОР АРЕНДЫ" {
		t.Errorf("file = %q, err = %v", data, err)
	}
	if len(td.copied) != 1 {
		t.Error("--copy should copy the result")
	}
}

func TestHealthCmd(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		out, _, err := run(t, td.Dependencies, "", "health")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "API:    ok") || !strings.Contains(out, "LLM:    ok") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{HealthVal: &models.HealthResponse{Status: "ok", LLMStatus: "unavailable"}})
		out, _, err := run(t, td.Dependencies, "", "health")
		if err == nil {
			t.Error("degraded backend should fail")
		}
		if !strings.Contains(out, "unavailable") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("down", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{HealthErr: errors.New("refused")})
		_, _, err := run(t, td.Dependencies, "", "health")
		if err == nil || !strings.Contains(err.Error(), "API недоступен") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestConfigCmd(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	t.Run("path", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		out, _, err := run(t, td.Dependencies, "", "config", "path")
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(out) != filepath.Join(home, "config.json") {
			t.Errorf("path = %q", out)
		}
	})

	t.Run("set", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		var saved config.Config
		td.SaveConfig = func(cfg config.Config) error {
			saved = cfg
			return nil
		}
		if _, _, err := run(t, td.Dependencies, "", "config", "set", "api_url", "https://copilot.example.com/"); err != nil {
			t.Fatal(err)
		}
		if saved.APIURL != "https://copilot.example.com" {
			t.Errorf("saved api_url = %q", saved.APIURL)
		}
	})

	t.Run("set invalid", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		if _, _, err := run(t, td.Dependencies, "", "config", "set", "default_mode", "astrology"); err == nil {
			t.Error("expected error for unknown mode")
		}
	})

	t.Run("show", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		out, _, err := run(t, td.Dependencies, "", "config", "show")
		if err != nil {
			t.Fatal(err)
		}
		for _, key := range config.Keys() {
			if !strings.Contains(out, key+" = ") {
				t.Errorf("show missing %s", key)
			}
		}
	})

	t.Run("menu", func(t *testing.T) {
		td := newTestDeps(&api.MockClient{})
		if _, _, err := run(t, td.Dependencies, "", "config"); err != nil {
			t.Fatal(err)
		}
		if td.tui.configCfg == nil {
			t.Fatal("config menu was not opened")
		}
		if td.tui.configPath != filepath.Join(home, "config.json") {
			t.Errorf("config path = %q", td.tui.configPath)
		}
	})
}

func TestNewRuntime_FlagOverrides(t *testing.T) {
	td := newTestDeps(nil)
	td.Client = nil

	rt, err := newRuntime(td.Dependencies, &globalOptions{
		apiURL:   "http://example.test:9000/",
		timeout:  30 * time.Second,
		logLevel: "debug",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if got := rt.client.BaseURL(); got != "http://example.test:9000" {
		t.Errorf("BaseURL = %q", got)
	}
	if rt.cfg.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d", rt.cfg.TimeoutSeconds)
	}
	if rt.cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", rt.cfg.LogLevel)
	}
}

func TestNewRuntime_SubSecondTimeout(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    int
	}{
		{500 * time.Millisecond, 1},
		{time.Nanosecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
	}
	for _, tt := range tests {
		t.Run(tt.timeout.String(), func(t *testing.T) {
			td := newTestDeps(&api.MockClient{})
			rt, err := newRuntime(td.Dependencies, &globalOptions{timeout: tt.timeout})
			if err != nil {
				t.Fatal(err)
			}
			defer rt.Close()
			if rt.cfg.TimeoutSeconds != tt.want {
				t.Errorf("timeout = %d, want %d", rt.cfg.TimeoutSeconds, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	if got := userAgent(); got != "bizcopilot-cli/"+Version {
		t.Errorf("userAgent() = %q", got)
	}
}

func TestNewRuntime_InvalidURL(t *testing.T) {
	td := newTestDeps(&api.MockClient{})
	if _, err := newRuntime(td.Dependencies, &globalOptions{apiURL: "ftp://nope"}); err == nil {
		t.Error("expected error for non-http api url")
	}
}

func TestNewRuntime_LogFile(t *testing.T) {
	td := newTestDeps(&api.MockClient{})
	td.NoLogFile = false
	td.cfg.LogFile = filepath.Join(t.TempDir(), "logs", "copilot.log")

	rt, err := newRuntime(td.Dependencies, &globalOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rt.log.Info("hello")
	rt.Close()

	data, err := os.ReadFile(td.cfg.LogFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log = %s", data)
	}
}

func TestFlagName(t *testing.T) {
	tests := map[string]string{
		"text":                 "text",
		"business_description": "business-description",
		"additional_context":   "additional-context",
	}
	for in, want := range tests {
		if got := FlagName(in); got != want {
			t.Errorf("FlagName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	deps := withDefaults(nil)
	if deps.TUI == nil || deps.LoadConfig == nil || deps.SaveConfig == nil || deps.Copy == nil {
		t.Error("withDefaults(nil) should fill every dependency")
	}

	custom := &fakeTUI{}
	deps = withDefaults(&Dependencies{TUI: custom})
	if deps.TUI != custom {
		t.Error("withDefaults should keep provided dependencies")
	}
}
