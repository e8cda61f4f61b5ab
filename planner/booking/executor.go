package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// ExecutorConfig describes how to invoke the browser-automation subprocess.
// The executor is opaque: JSON request on stdin, diagnostics plus a final JSON
// line on stdout.
type ExecutorConfig struct {
	Command        string        `envconfig:"COMMAND" split_words:"true" default:"node"`
	Args           []string      `envconfig:"ARGS" split_words:"true" default:"--import,tsx"`
	Dir            string        `envconfig:"DIR" split_words:"true"`
	BookScript     string        `envconfig:"BOOK_SCRIPT" split_words:"true" default:"index.ts"`
	EstimateScript string        `envconfig:"ESTIMATE_SCRIPT" split_words:"true" default:"uber-estimate.ts"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"120s"`
}

// Executor runs the automation subprocess. Failures are reported as result
// records, never raised, so a broken automation can't crash the calling tool.
type Executor struct {
	cfg ExecutorConfig
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = "node"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Executor{cfg: cfg}
}

// BookingRequest is the stdin contract with the booking automation.
type BookingRequest struct {
	URL       string `json:"url"`
	TimeText  string `json:"time_text"`
	PartySize int    `json:"party_size"`
	Phone     string `json:"phone,omitempty"`
	OTPCode   string `json:"otp_code,omitempty"`
	SkipToOTP bool   `json:"skip_to_otp,omitempty"`
}

// Confirmation is the optional sub-object a successful booking run emits.
type Confirmation struct {
	RestaurantName   string `json:"restaurant_name,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	Address          string `json:"address,omitempty"`
}

const outputTailBytes = 2000

// Book runs the booking script with the request on stdin.
func (e *Executor) Book(ctx context.Context, req BookingRequest) map[string]any {
	return e.run(ctx, e.cfg.BookScript, req)
}

func (e *Executor) run(ctx context.Context, script string, payload any) map[string]any {
	input, err := json.Marshal(payload)
	if err != nil {
		return failure("invalid payload: " + err.Error())
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	args := append(append([]string(nil), e.cfg.Args...), script)
	cmd := exec.CommandContext(runCtx, e.cfg.Command, args...)
	cmd.Dir = e.cfg.Dir
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return failure("timeout")
	}
	if runErr != nil {
		return map[string]any{
			"status": "failed",
			"error":  "booking_failed",
			"stderr": tail(stderr.String(), outputTailBytes),
			"stdout": tail(stdout.String(), outputTailBytes),
		}
	}

	if parsed, ok := ParseLastJSONLine(stdout.String()); ok {
		if obj, isObj := parsed.(map[string]any); isObj {
			return obj
		}
		return map[string]any{"status": "success", "output": parsed}
	}
	return map[string]any{"status": "success", "output": stdout.String()}
}

// ParseLastJSONLine scans output lines in reverse and returns the first one
// that parses as a JSON value. This tolerates diagnostic lines preceding the
// result and is a fixed contract with the executor.
func ParseLastJSONLine(output string) (any, bool) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(line), &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

func failure(reason string) map[string]any {
	return map[string]any{"status": "failed", "error": reason}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
