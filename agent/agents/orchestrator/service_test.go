package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/prompt"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// fakeReasoner replays a script; the last entry repeats once the script runs out.
type fakeReasoner struct {
	mu       sync.Mutex
	script   []func(req contractx.ReasonRequest) (statex.AssistantMessage, error)
	requests []contractx.ReasonRequest
}

func (f *fakeReasoner) Reason(ctx context.Context, req contractx.ReasonRequest) (statex.AssistantMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return statex.AssistantMessage{}, err
	}
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	return f.script[idx](req)
}

func (f *fakeReasoner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func reply(text string) func(contractx.ReasonRequest) (statex.AssistantMessage, error) {
	return func(contractx.ReasonRequest) (statex.AssistantMessage, error) {
		return statex.AssistantMessage{Text: text}, nil
	}
}

func callTools(calls ...statex.ToolCall) func(contractx.ReasonRequest) (statex.AssistantMessage, error) {
	return func(contractx.ReasonRequest) (statex.AssistantMessage, error) {
		out := make([]statex.ToolCall, len(calls))
		copy(out, calls)
		return statex.AssistantMessage{ToolCalls: out}, nil
	}
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []statex.ToolCall
}

func (f *fakeDispatcher) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{{Name: "get_weather"}, {Name: "search_hotels"}, {Name: "search_flights"}}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, call statex.ToolCall) provider.Result {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	city, _ := call.Arguments["city"].(string)
	switch call.Name {
	case "get_weather":
		return provider.WeatherResult(&provider.WeatherReport{City: city, Type: "current"})
	case "search_hotels":
		return provider.HotelResult(&provider.HotelSearch{})
	case "search_flights":
		return provider.FlightResult(&provider.FlightSearch{})
	default:
		return provider.Failure("", "Bilinmeyen araç: "+call.Name)
	}
}

func newTestOrchestrator(t *testing.T, r contractx.Reasoner, d contractx.ToolDispatcher) (*Orchestrator, *statex.MemoryStore) {
	t.Helper()
	store := statex.NewMemoryStore()
	o, err := New(store, r, d, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, store
}

func weatherCall(id, city string) statex.ToolCall {
	return statex.ToolCall{ID: id, Name: "get_weather", Arguments: map[string]any{"city": city}}
}

func TestProcessTurnPlainReply(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){reply("Merhaba!")}}
	o, store := newTestOrchestrator(t, r, &fakeDispatcher{})

	res, err := o.ProcessTurn(context.Background(), "s1", "merhaba")
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if res.Terminal != "Merhaba!" {
		t.Fatalf("terminal = %q, want %q", res.Terminal, "Merhaba!")
	}
	if res.Iterations != 1 || res.Degraded {
		t.Fatalf("iterations = %d degraded = %v, want 1 false", res.Iterations, res.Degraded)
	}
	if len(res.Tail) != 2 {
		t.Fatalf("tail len = %d, want 2", len(res.Tail))
	}

	sess, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.Len() != 2 || sess.Turns() != 1 {
		t.Fatalf("session len = %d turns = %d, want 2 1", sess.Len(), sess.Turns())
	}

	req := r.requests[0]
	if req.System == "" {
		t.Fatal("expected system prompt on reasoning request")
	}
	if len(req.Tools) != 3 {
		t.Fatalf("tools = %d, want 3", len(req.Tools))
	}
	if _, ok := req.Messages[0].(statex.UserMessage); !ok {
		t.Fatalf("first message = %T, want UserMessage", req.Messages[0])
	}
}

func TestProcessTurnToolRoundTrip(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){
		callTools(weatherCall("c1", "İstanbul")),
		func(req contractx.ReasonRequest) (statex.AssistantMessage, error) {
			last := req.Messages[len(req.Messages)-1]
			tr, ok := last.(statex.ToolResultMessage)
			if !ok || tr.CallID != "c1" {
				return statex.AssistantMessage{}, fmt.Errorf("unexpected last message %#v", last)
			}
			return statex.AssistantMessage{Text: "İstanbul'da hava açık."}, nil
		},
	}}
	d := &fakeDispatcher{}
	o, store := newTestOrchestrator(t, r, d)

	res, err := o.ProcessTurn(context.Background(), "s1", "İstanbul'da hava nasıl?")
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if res.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", res.Iterations)
	}
	if len(res.ToolResults) != 1 || res.ToolResults[0].Kind != provider.KindWeather {
		t.Fatalf("tool results = %+v, want one weather result", res.ToolResults)
	}
	if len(d.calls) != 1 {
		t.Fatalf("dispatched %d calls, want 1", len(d.calls))
	}

	// user, assistant(call), tool result, assistant(text)
	sess, _ := store.Get("s1")
	if sess.Len() != 4 {
		t.Fatalf("session len = %d, want 4", sess.Len())
	}
}

func TestProcessTurnParallelCallsKeepOrder(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){
		callTools(
			statex.ToolCall{ID: "h", Name: "search_hotels", Arguments: map[string]any{"city": "Antalya"}},
			weatherCall("w", "Antalya"),
			statex.ToolCall{ID: "f", Name: "search_flights", Arguments: map[string]any{}},
		),
		reply("Hepsi hazır."),
	}}
	o, _ := newTestOrchestrator(t, r, &fakeDispatcher{})

	res, err := o.ProcessTurn(context.Background(), "s1", "Antalya tatili planla")
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	want := []provider.Kind{provider.KindHotels, provider.KindWeather, provider.KindFlights}
	if len(res.ToolResults) != len(want) {
		t.Fatalf("tool results = %d, want %d", len(res.ToolResults), len(want))
	}
	for i, k := range want {
		if res.ToolResults[i].Kind != k {
			t.Fatalf("result[%d] kind = %s, want %s", i, res.ToolResults[i].Kind, k)
		}
	}

	var ids []string
	for _, m := range res.Tail {
		if tr, ok := m.(statex.ToolResultMessage); ok {
			ids = append(ids, tr.CallID)
		}
	}
	if fmt.Sprint(ids) != "[h w f]" {
		t.Fatalf("result order = %v, want [h w f]", ids)
	}
}

func TestProcessTurnIterationCap(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){
		callTools(weatherCall("", "Ankara")),
	}}
	d := &fakeDispatcher{}
	o, store := newTestOrchestrator(t, r, d)

	res, err := o.ProcessTurn(context.Background(), "s1", "hava?")
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if r.calls() != 8 || res.Iterations != 8 {
		t.Fatalf("reasoning calls = %d iterations = %d, want 8", r.calls(), res.Iterations)
	}
	if !res.Degraded {
		t.Fatal("expected degraded turn")
	}
	if res.Terminal != prompt.LoadPromptSet().Exhausted {
		t.Fatalf("terminal = %q, want exhausted prompt", res.Terminal)
	}
	// The last reasoning step's calls are never dispatched.
	if len(d.calls) != 7 || len(res.ToolResults) != 7 {
		t.Fatalf("dispatched = %d results = %d, want 7", len(d.calls), len(res.ToolResults))
	}

	last, ok := res.Tail[len(res.Tail)-1].(statex.AssistantMessage)
	if !ok || last.HasToolCalls() {
		t.Fatalf("last message = %#v, want text-only assistant", res.Tail[len(res.Tail)-1])
	}

	sess, _ := store.Get("s1")
	if sess.Len() != len(res.Tail) {
		t.Fatalf("session len = %d, want %d", sess.Len(), len(res.Tail))
	}
}

func TestProcessTurnReasoningErrorCommitsNothing(t *testing.T) {
	t.Parallel()

	boom := errors.New("upstream 503")
	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){
		callTools(weatherCall("c1", "İzmir")),
		func(contractx.ReasonRequest) (statex.AssistantMessage, error) {
			return statex.AssistantMessage{}, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, boom)
		},
	}}
	o, store := newTestOrchestrator(t, r, &fakeDispatcher{})

	_, err := o.ProcessTurn(context.Background(), "s1", "İzmir hava")
	if !errors.Is(err, contractx.ErrModelInvoke) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}

	sess, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.Len() != 0 {
		t.Fatalf("session len = %d, want 0", sess.Len())
	}
}

func TestProcessTurnHistoryAcrossTurns(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){
		reply("Bir."),
		reply("İki."),
	}}
	o, store := newTestOrchestrator(t, r, &fakeDispatcher{})

	for _, text := range []string{"ilk", "ikinci"} {
		if _, err := o.ProcessTurn(context.Background(), "s1", text); err != nil {
			t.Fatalf("ProcessTurn(%q) error = %v", text, err)
		}
	}

	second := r.requests[1].Messages
	if len(second) != 3 {
		t.Fatalf("second request messages = %d, want 3", len(second))
	}
	if u, ok := second[0].(statex.UserMessage); !ok || u.Text != "ilk" {
		t.Fatalf("first history message = %#v", second[0])
	}
	sess, _ := store.Get("s1")
	if sess.Turns() != 2 || sess.Len() != 4 {
		t.Fatalf("turns = %d len = %d, want 2 4", sess.Turns(), sess.Len())
	}
}

func TestProcessTurnSerializesSameSession(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){reply("tamam")}}
	o, store := newTestOrchestrator(t, r, &fakeDispatcher{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := o.ProcessTurn(context.Background(), "s1", fmt.Sprintf("mesaj %d", i)); err != nil {
				t.Errorf("ProcessTurn() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	sess, _ := store.Get("s1")
	msgs := sess.Messages()
	if len(msgs) != 10 {
		t.Fatalf("session len = %d, want 10", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if _, ok := msgs[i].(statex.UserMessage); !ok {
			t.Fatalf("message %d = %T, want UserMessage", i, msgs[i])
		}
		if _, ok := msgs[i+1].(statex.AssistantMessage); !ok {
			t.Fatalf("message %d = %T, want AssistantMessage", i+1, msgs[i+1])
		}
	}
}

func TestProcessTurnRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){reply("x")}}
	o, _ := newTestOrchestrator(t, r, &fakeDispatcher{})

	if _, err := o.ProcessTurn(context.Background(), "s1", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if _, err := o.ProcessTurn(context.Background(), "", "selam"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if r.calls() != 0 {
		t.Fatalf("reasoner called %d times, want 0", r.calls())
	}
}

func TestProcessTurnCancelledContext(t *testing.T) {
	t.Parallel()

	r := &fakeReasoner{script: []func(contractx.ReasonRequest) (statex.AssistantMessage, error){reply("x")}}
	o, store := newTestOrchestrator(t, r, &fakeDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.ProcessTurn(ctx, "s1", "selam"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sess, err := store.Get("s1"); err == nil && sess.Len() != 0 {
		t.Fatalf("session len = %d, want 0", sess.Len())
	}
}

func TestProcessTurnTimeout(t *testing.T) {
	t.Parallel()

	blocking := reasonerFunc(func(ctx context.Context, _ contractx.ReasonRequest) (statex.AssistantMessage, error) {
		<-ctx.Done()
		return statex.AssistantMessage{}, ctx.Err()
	})
	o, err := New(statex.NewMemoryStore(), blocking, &fakeDispatcher{}, Config{TurnTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := o.ProcessTurn(context.Background(), "s1", "selam"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type reasonerFunc func(context.Context, contractx.ReasonRequest) (statex.AssistantMessage, error)

func (f reasonerFunc) Reason(ctx context.Context, req contractx.ReasonRequest) (statex.AssistantMessage, error) {
	return f(ctx, req)
}
