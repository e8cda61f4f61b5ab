// Package consensus classifies the group messages accumulated since a proposal
// and decides, with bounded confidence, whether booking is safe. Classification
// is a priority-ordered table of patterns; first match wins per line.
package consensus

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	contractx "github.com/supperclub/concierge/planner/contract"
	statex "github.com/supperclub/concierge/planner/state"
)

// Detector-reported stages. These are signal values read by the caller; they
// are never persisted into the plan record here.
const (
	StageBlocked    = "blocked"
	StageConfirmed  = "confirmed"
	StageConverging = "converging"
	StageCollecting = "collecting"
)

const (
	NextActionAskClarifying = "ask clarifying question"
	NextActionSafeToBook    = "safe to book"
	NextActionWait          = "wait"
)

// Config holds the confidence constants. The defaults are deliberate fixed
// values carried over from the source heuristic; they are configurable rather
// than reinterpreted.
type Config struct {
	BaseConfidence    float64 `envconfig:"BASE_CONFIDENCE" split_words:"true" default:"0.40"`
	PerApproval       float64 `envconfig:"PER_APPROVAL" split_words:"true" default:"0.15"`
	ApprovalCap       float64 `envconfig:"APPROVAL_CAP" split_words:"true" default:"0.40"`
	ChosenBonus       float64 `envconfig:"CHOSEN_BONUS" split_words:"true" default:"0.20"`
	ObjectionFloor    float64 `envconfig:"OBJECTION_FLOOR" split_words:"true" default:"0.10"`
	ConfirmThreshold  float64 `envconfig:"CONFIRM_THRESHOLD" split_words:"true" default:"0.85"`
	MinApprovals      int     `envconfig:"MIN_APPROVALS" split_words:"true" default:"2"`
	MaxSignalExamples int     `envconfig:"MAX_SIGNAL_EXAMPLES" split_words:"true" default:"10"`
}

func DefaultConfig() Config {
	return Config{
		BaseConfidence:    0.40,
		PerApproval:       0.15,
		ApprovalCap:       0.40,
		ChosenBonus:       0.20,
		ObjectionFloor:    0.10,
		ConfirmThreshold:  0.85,
		MinApprovals:      2,
		MaxSignalExamples: 10,
	}
}

// Outcome is the detector's read of the group, before the service wraps it
// into a tool response.
type Outcome struct {
	Stage        string
	ChosenOption string
	Confidence   float64
	Signals      contractx.Signals
	SafeToBook   bool
	NextAction   string
	AutoMessage  string
}

var objectionPatterns = compileWords(
	"wait", "stop", "no", "veto", "change", "actually no", "hold on", "hang on", "not sure",
)

var cantMakePatterns = compileWords(
	"can't make", "cant make", "can't come", "cant come", "can't do", "cant do",
	"won't make", "wont make", "count me out", "skip me", "have a conflict",
)

var goAheadPatterns = compileWords(
	"without me", "go ahead", "don't wait", "dont wait", "you guys go", "you all go", "carry on",
)

var approvalPatterns = compileWords(
	"works", "sounds good", "sounds great", "ok", "okay", "yes", "yep", "yeah", "sure",
	"i'm in", "im in", "down", "lgtm", "sgtm", "perfect", "love it", "let's do", "lets do",
	"fine by me", "good with me", "+1",
)

var (
	optionAPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\boption a\b`),
		regexp.MustCompile(`\ba\b`),
	}
	optionBPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\boption b\b`),
		regexp.MustCompile(`\bb\b`),
	}
)

func compileWords(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`(^|\W)`+regexp.QuoteMeta(p)+`($|\W)`))
	}
	return out
}

// bareChoice reports whether the line is nothing but an option reference; a
// message that names an option and says nothing else counts as an approval.
func bareChoice(line string) bool {
	switch strings.TrimRight(line, "!. ") {
	case "a", "b", "option a", "option b":
		return true
	}
	return false
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Detect classifies messagesText (one logical message per line) against the
// active proposal and derives stage, confidence, and the go/no-go decision.
func Detect(proposal *statex.Proposal, messagesText string, cfg Config) Outcome {
	var (
		approvals    []string
		objections   []string
		cantMakeItOK []string
		unknown      []string
		mentionsA    int
		mentionsB    int
	)

	for _, raw := range strings.Split(messagesText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if matchesAny(lower, optionAPatterns) {
			mentionsA++
		}
		if matchesAny(lower, optionBPatterns) {
			mentionsB++
		}

		switch {
		case matchesAny(lower, objectionPatterns):
			objections = append(objections, line)
		case matchesAny(lower, cantMakePatterns) && matchesAny(lower, goAheadPatterns):
			cantMakeItOK = append(cantMakeItOK, line)
		case matchesAny(lower, cantMakePatterns):
			unknown = append(unknown, line)
		case matchesAny(lower, approvalPatterns) || bareChoice(lower):
			approvals = append(approvals, line)
		default:
			unknown = append(unknown, line)
		}
	}

	chosen := ""
	if mentionsA > mentionsB && mentionsA > 0 {
		chosen = "A"
	} else if mentionsB > mentionsA && mentionsB > 0 {
		chosen = "B"
	}
	if chosen != "" && proposal != nil {
		if _, ok := proposal.Option(chosen); !ok {
			chosen = ""
		}
	}

	confidence := cfg.BaseConfidence
	boost := cfg.PerApproval * float64(len(approvals))
	if boost > cfg.ApprovalCap {
		boost = cfg.ApprovalCap
	}
	confidence += boost
	if chosen != "" {
		confidence += cfg.ChosenBonus
	}
	if len(objections) > 0 {
		confidence = cfg.ObjectionFloor
	}
	confidence = math.Round(confidence*100) / 100

	out := Outcome{
		ChosenOption: chosen,
		Confidence:   confidence,
		Signals: contractx.Signals{
			Approvals:    capExamples(approvals, cfg.MaxSignalExamples),
			Objections:   capExamples(objections, cfg.MaxSignalExamples),
			CantMakeItOK: capExamples(cantMakeItOK, cfg.MaxSignalExamples),
			Unknown:      capExamples(unknown, cfg.MaxSignalExamples),
		},
	}

	switch {
	case len(objections) > 0:
		out.Stage = StageBlocked
		out.NextAction = NextActionAskClarifying
		out.AutoMessage = "Heard a concern — what should we change: time, place, or vibe?"
	case confidence >= cfg.ConfirmThreshold && len(approvals) >= cfg.MinApprovals && chosen != "":
		out.Stage = StageConfirmed
		out.SafeToBook = true
		out.NextAction = NextActionSafeToBook
	case len(approvals) > 0 || chosen != "":
		out.Stage = StageConverging
		out.NextAction = NextActionWait
		leaning := chosen
		if leaning == "" {
			leaning = "one of the options"
		} else {
			leaning = fmt.Sprintf("Option %s", leaning)
		}
		out.AutoMessage = fmt.Sprintf("Leaning toward %s — any objections before I book?", leaning)
	default:
		out.Stage = StageCollecting
		out.NextAction = NextActionWait
	}

	return out
}

func capExamples(lines []string, max int) []string {
	if max <= 0 {
		max = 10
	}
	if lines == nil {
		return []string{}
	}
	if len(lines) > max {
		return lines[:max]
	}
	return lines
}
