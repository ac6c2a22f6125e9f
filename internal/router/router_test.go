package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/internal/platform/platformtest"
	"github.com/flemzord/doorman/pkg/event"
	"github.com/flemzord/doorman/pkg/message"
)

const channelID int64 = -1001234

var (
	sam  = event.User{ID: 7, FirstName: "Sam"}
	ana  = event.User{ID: 555, FirstName: "Ana", LastName: "Lee"}
	vip  = event.Chat{ID: channelID, Type: "channel", Title: "Signals VIP"}
	side = event.Chat{ID: -1009999, Type: "channel", Title: "Side Room"}
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	router *Router
	client *platformtest.MockClient
	logs   *syncBuffer
}

func newFixture(t *testing.T, mutate func(*Config)) fixture {
	t.Helper()

	f, err := format.New(format.DefaultTemplates(), format.Options{})
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}

	client := platformtest.NewMockClient()
	logs := &syncBuffer{}
	cfg := Config{
		Messenger: client,
		Formatter: f,
		Policy:    Policy{ChannelID: channelID},
		Logger:    slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		NewID:     func() string { return "dispatch-1" },
	}
	if mutate != nil {
		mutate(&cfg)
	}

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fixture{router: r, client: client, logs: logs}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	f, _ := format.New(format.DefaultTemplates(), format.Options{})

	if _, err := New(Config{Formatter: f, Policy: Policy{ChannelID: 1}}); !errors.Is(err, ErrNoMessenger) {
		t.Errorf("err = %v, want ErrNoMessenger", err)
	}
	if _, err := New(Config{Messenger: platformtest.NewMockClient(), Policy: Policy{ChannelID: 1}}); !errors.Is(err, ErrNoFormatter) {
		t.Errorf("err = %v, want ErrNoFormatter", err)
	}
}

func TestNew_RejectsIncompleteTemplates(t *testing.T) {
	t.Parallel()

	f, err := format.New(map[format.TemplateKind]format.Template{
		format.Welcome: {Text: "hi"},
	}, format.Options{})
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}

	_, err = New(Config{Messenger: platformtest.NewMockClient(), Formatter: f, Policy: Policy{ChannelID: 1}})
	if !errors.Is(err, format.ErrUnknownTemplate) {
		t.Errorf("err = %v, want ErrUnknownTemplate", err)
	}
}

func TestNew_RejectsChatTitleInAutoReply(t *testing.T) {
	t.Parallel()

	tmpls := format.DefaultTemplates()
	tmpls[format.AutoReply] = format.Template{Text: "This is {chat_title}"}
	f, err := format.New(tmpls, format.Options{})
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}

	_, err = New(Config{Messenger: platformtest.NewMockClient(), Formatter: f, Policy: Policy{ChannelID: 1}})
	if !errors.Is(err, ErrTemplateField) {
		t.Errorf("err = %v, want ErrTemplateField", err)
	}
}

func TestDispatch_JoinRequest(t *testing.T) {
	t.Parallel()

	for _, chat := range []event.Chat{vip, side} {
		t.Run(chat.Title, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, nil)

			res := fx.router.Dispatch(context.Background(), event.JoinRequest{UpdateID: 1, Actor: ana, Chat: chat})

			if res.Outcome != OutcomeHandled || res.Calls != 2 || res.Err != nil {
				t.Fatalf("Result = %+v, want handled with 2 calls", res)
			}
			calls := fx.client.Calls()
			if len(calls) != 2 || calls[0] != platformtest.CallApprove || calls[1] != platformtest.CallSend {
				t.Fatalf("calls = %v, want [approve send]", calls)
			}
			approvals := fx.client.Approvals()
			if approvals[0] != (platformtest.Approval{ChatID: chat.ID, UserID: ana.ID}) {
				t.Errorf("approval = %+v", approvals[0])
			}
			sent := fx.client.Sent()
			if sent[0].ChatID != ana.ID {
				t.Errorf("welcome sent to %d, want actor %d", sent[0].ChatID, ana.ID)
			}
			if !strings.Contains(sent[0].Text, "Hi Ana!") || !strings.Contains(sent[0].Text, "*"+chat.Title+"*") {
				t.Errorf("welcome text = %q", sent[0].Text)
			}
		})
	}
}

func TestDispatch_JoinRequestChannelFilter(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *Config) { c.Policy.JoinRequests = FilterChannel })

	res := fx.router.Dispatch(context.Background(), event.JoinRequest{Actor: ana, Chat: side})
	if res.Outcome != OutcomeIgnored || res.Calls != 0 {
		t.Fatalf("Result = %+v, want ignored with 0 calls", res)
	}
	if len(fx.client.Calls()) != 0 {
		t.Errorf("calls = %v, want none", fx.client.Calls())
	}
}

func TestDispatch_JoinRequestApproveFails(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.client.ApproveFunc = func(context.Context, int64, int64) error {
		return &platform.CallError{Method: "approveChatJoinRequest", Code: 400, Description: "Bad Request: USER_ALREADY_PARTICIPANT"}
	}

	res := fx.router.Dispatch(context.Background(), event.JoinRequest{Actor: ana, Chat: vip})

	if res.Outcome != OutcomeFailed || res.Calls != 1 {
		t.Fatalf("Result = %+v, want failed with 1 call", res)
	}
	var he *HandlerError
	if !errors.As(res.Err, &he) || he.Step != StepApprove || he.UserID != ana.ID {
		t.Fatalf("Err = %v, want approve HandlerError for %d", res.Err, ana.ID)
	}
	if len(fx.client.Sent()) != 0 {
		t.Error("welcome must not be sent when approval fails")
	}
	if !strings.Contains(fx.logs.String(), "level=ERROR") {
		t.Errorf("logs = %q, want an error entry", fx.logs.String())
	}
}

func TestDispatch_MemberStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		chat      event.Chat
		status    event.Status
		wantCalls int
		want      Outcome
	}{
		{"left own channel", vip, event.StatusLeft, 1, OutcomeHandled},
		{"kicked own channel", vip, event.StatusKicked, 1, OutcomeHandled},
		{"member own channel", vip, event.StatusMember, 0, OutcomeIgnored},
		{"administrator own channel", vip, event.StatusAdministrator, 0, OutcomeIgnored},
		{"restricted own channel", vip, event.StatusRestricted, 0, OutcomeIgnored},
		{"left other chat", side, event.StatusLeft, 0, OutcomeIgnored},
		{"kicked other chat", side, event.StatusKicked, 0, OutcomeIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, nil)

			res := fx.router.Dispatch(context.Background(), event.MemberStatus{
				Actor: sam, Chat: tt.chat, OldStatus: event.StatusMember, NewStatus: tt.status,
			})

			if res.Outcome != tt.want || res.Calls != tt.wantCalls {
				t.Fatalf("Result = %+v, want %s with %d calls", res, tt.want, tt.wantCalls)
			}
			if got := len(fx.client.Calls()); got != tt.wantCalls {
				t.Errorf("platform calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestDispatch_MemberStatusAnyChat(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(c *Config) { c.Policy.MemberStatus = FilterAny })

	res := fx.router.Dispatch(context.Background(), event.MemberStatus{Actor: sam, Chat: side, NewStatus: event.StatusLeft})
	if res.Outcome != OutcomeHandled || res.Calls != 1 {
		t.Fatalf("Result = %+v, want handled", res)
	}
}

func TestDispatch_SamLeft(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	res := fx.router.Dispatch(context.Background(), event.MemberStatus{
		UpdateID: 42, Actor: sam, Chat: vip, OldStatus: event.StatusMember, NewStatus: event.StatusLeft,
	})
	if res.Outcome != OutcomeHandled {
		t.Fatalf("Outcome = %s, want handled", res.Outcome)
	}

	sent := fx.client.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	want := message.OutboundMessage{
		ChatID:    7,
		Text:      "Goodbye Sam! 👋\nSorry to see you leave *Signals VIP*.",
		ParseMode: message.ParseMarkdown,
	}
	if sent[0].ChatID != want.ChatID || sent[0].Text != want.Text || sent[0].ParseMode != want.ParseMode {
		t.Errorf("sent = %+v, want %+v", sent[0], want)
	}
	if sent[0].ChatID == channelID {
		t.Error("farewell must be addressed to the member, not the channel")
	}
}

func TestDispatch_PrivateMessage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "please echo this secret", "/start"} {
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, nil)

			res := fx.router.Dispatch(context.Background(), event.PrivateMessage{
				Actor: sam, Chat: event.Chat{ID: sam.ID, Type: "private"}, Text: text,
			})

			if res.Outcome != OutcomeHandled || res.Calls != 1 {
				t.Fatalf("Result = %+v, want handled with 1 call", res)
			}
			sent := fx.client.Sent()
			if len(sent) != 1 || sent[0].ChatID != sam.ID {
				t.Fatalf("sent = %+v, want one reply to %d", sent, sam.ID)
			}
			if text != "" && strings.Contains(sent[0].Text, text) {
				t.Errorf("reply %q echoes the inbound text", sent[0].Text)
			}
			if !strings.Contains(sent[0].Text, "I am a bot") {
				t.Errorf("reply = %q, want auto-reply", sent[0].Text)
			}
		})
	}
}

func TestDispatch_Unknown(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	for _, ev := range []event.InboundEvent{event.Unknown{UpdateID: 9, Reason: "edited_message"}, nil} {
		res := fx.router.Dispatch(context.Background(), ev)
		if res.Outcome != OutcomeIgnored || res.Calls != 0 || res.Kind != event.KindUnknown {
			t.Errorf("Result = %+v, want ignored unknown", res)
		}
	}
	if len(fx.client.Calls()) != 0 {
		t.Error("unknown events must not produce calls")
	}
}

func TestDispatch_UnreachableLoggedAsWarning(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.client.SendFunc = func(context.Context, message.OutboundMessage) error {
		return &platform.CallError{Method: "sendMessage", Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}

	res := fx.router.Dispatch(context.Background(), event.MemberStatus{Actor: sam, Chat: vip, NewStatus: event.StatusKicked})

	if res.Outcome != OutcomeFailed || !res.Unreachable() {
		t.Fatalf("Result = %+v, want unreachable failure", res)
	}
	logs := fx.logs.String()
	if !strings.Contains(logs, "level=WARN") || strings.Contains(logs, "level=ERROR") {
		t.Errorf("logs = %q, want a warning only", logs)
	}
	for _, want := range []string{"dispatch_id=dispatch-1", "kind=member_status", "user_id=7", "chat_id=-1001234"} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q: %s", want, logs)
		}
	}
}

func TestDispatch_FormatError(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	// No chat title: the farewell cannot be rendered.
	res := fx.router.Dispatch(context.Background(), event.MemberStatus{
		Actor: sam, Chat: event.Chat{ID: channelID}, NewStatus: event.StatusLeft,
	})

	var missing *format.MissingFieldError
	if res.Outcome != OutcomeFailed || !errors.As(res.Err, &missing) {
		t.Fatalf("Result = %+v, want MissingFieldError", res)
	}
	if res.Calls != 0 || len(fx.client.Calls()) != 0 {
		t.Error("nothing should be sent when formatting fails")
	}
}

func TestDispatch_MetricsAndSpans(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	fx := newFixture(t, func(c *Config) {
		c.Metrics = metrics.New(reg)
		c.TracerProvider = tp
	})

	fx.router.Dispatch(context.Background(), event.PrivateMessage{Actor: sam, Chat: event.Chat{ID: 7, Type: "private"}})
	fx.router.Dispatch(context.Background(), event.Unknown{})

	count, err := testutil.GatherAndCount(reg, "doorman_dispatch_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Errorf("dispatch_total series = %d, want 2", count)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "router.dispatch" {
			t.Errorf("span name = %q", s.Name())
		}
	}
}

func TestDispatch_UniqueIDs(t *testing.T) {
	t.Parallel()

	f, _ := format.New(format.DefaultTemplates(), format.Options{})
	r, err := New(Config{
		Messenger: platformtest.NewMockClient(),
		Formatter: f,
		Policy:    Policy{ChannelID: channelID},
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := r.Dispatch(context.Background(), event.Unknown{})
	b := r.Dispatch(context.Background(), event.Unknown{})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q, want distinct non-empty", a.ID, b.ID)
	}
}

func TestHandlerError(t *testing.T) {
	t.Parallel()

	cause := &platform.CallError{Method: "sendMessage", Code: 403}
	he := &HandlerError{Kind: event.KindPrivateMessage, Step: StepSend, UserID: 7, Err: cause}

	if !errors.Is(he, cause) {
		t.Error("HandlerError should unwrap to its cause")
	}
	if !he.Unreachable() {
		t.Error("403 cause should be unreachable")
	}
	if got := he.Error(); !strings.Contains(got, "private_message send for user 7") {
		t.Errorf("Error() = %q", got)
	}
}
