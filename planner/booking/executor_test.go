package booking

import (
	"context"
	"strings"
	"testing"
	"time"
)

func shellExecutor(script string, timeout time.Duration) *Executor {
	return NewExecutor(ExecutorConfig{
		Command:    "sh",
		Args:       []string{"-c"},
		BookScript: script,
		Timeout:    timeout,
	})
}

func TestBookParsesLastJSONLine(t *testing.T) {
	t.Parallel()

	e := shellExecutor(`echo "navigating..."; echo '{"status":"success","confirmation":{"confirmation_code":"X123"}}'`, 10*time.Second)
	result := e.Book(context.Background(), BookingRequest{URL: "https://example.com", TimeText: "7:30 PM", PartySize: 5})

	if result["status"] != "success" {
		t.Fatalf("status: got %v", result)
	}
	conf, ok := result["confirmation"].(map[string]any)
	if !ok || conf["confirmation_code"] != "X123" {
		t.Fatalf("confirmation: got %v", result["confirmation"])
	}
}

func TestBookReportsNonZeroExit(t *testing.T) {
	t.Parallel()

	e := shellExecutor(`echo "page crashed" >&2; exit 3`, 10*time.Second)
	result := e.Book(context.Background(), BookingRequest{})

	if result["status"] != "failed" || result["error"] != "booking_failed" {
		t.Fatalf("expected booking_failed record, got %v", result)
	}
	stderr, _ := result["stderr"].(string)
	if !strings.Contains(stderr, "page crashed") {
		t.Fatalf("stderr tail missing, got %q", stderr)
	}
}

func TestBookTimesOut(t *testing.T) {
	t.Parallel()

	e := shellExecutor(`sleep 5`, 200*time.Millisecond)
	result := e.Book(context.Background(), BookingRequest{})

	if result["status"] != "failed" || result["error"] != "timeout" {
		t.Fatalf("expected timeout record, got %v", result)
	}
}

func TestParseLastJSONLine(t *testing.T) {
	t.Parallel()

	out := "launching browser\nfilling form\n{\"status\":\"success\"}\n"
	parsed, ok := ParseLastJSONLine(out)
	if !ok {
		t.Fatal("expected a parse")
	}
	obj, _ := parsed.(map[string]any)
	if obj["status"] != "success" {
		t.Fatalf("got %v", parsed)
	}
}

func TestParseLastJSONLineSkipsTrailingNoise(t *testing.T) {
	t.Parallel()

	out := "{\"status\":\"success\"}\nclosing browser\n\n"
	parsed, ok := ParseLastJSONLine(out)
	if !ok {
		t.Fatal("expected a parse")
	}
	obj, _ := parsed.(map[string]any)
	if obj["status"] != "success" {
		t.Fatalf("got %v", parsed)
	}
}

func TestParseLastJSONLineNoJSON(t *testing.T) {
	t.Parallel()

	if _, ok := ParseLastJSONLine("nothing useful here"); ok {
		t.Fatal("expected no parse")
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	if got := tail("abcdef", 4); got != "cdef" {
		t.Fatalf("got %q", got)
	}
	if got := tail("ab", 4); got != "ab" {
		t.Fatalf("got %q", got)
	}
}
