// Package agentparse recovers structured event arrays from the free-form,
// frequently malformed text produced by the search agent. It never fails:
// exhausting every strategy yields an empty slice.
package agentparse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// Strategy names, recorded for diagnostics.
const (
	StrategyCodeBlock  = "code_block"
	StrategyRegexMatch = "regex_match"
	StrategyEntireText = "entire_text"
	StrategySubstring  = "substring"
	StrategyObjects    = "object_extraction"
	StrategyNone       = "none"
)

var (
	codeBlockRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[\\s*\\{.*?\\}\\s*\\](?:\\s*\\})?)```")
	arrayRe      = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*(?:,\s*\{.*?\}\s*)*\]`)
	titleGroupRe = regexp.MustCompile(`\{[^{}]*"title":[^{}]*\}`)
)

// Result holds the recovered events and the strategy that produced them.
type Result struct {
	Strategy string            `json:"strategy"`
	Count    int               `json:"count"`
	Events   []event.Candidate `json:"events"`
}

// Parse tries each recovery strategy in order and stops at the first one
// that yields a non-empty event list.
func Parse(text string) Result {
	// Strategy 1: JSON array inside a fenced code block.
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		if events, ok := repairAndDecode(m[1]); ok {
			logger.Info("parsed agent output from code block", "events", len(events))
			return Result{Strategy: StrategyCodeBlock, Count: len(events), Events: events}
		}
		logger.Warn("failed to parse JSON from code block")
	}

	// Strategy 2: JSON array located anywhere in the text.
	if m := arrayRe.FindString(text); m != "" {
		if events, ok := repairAndDecode(m); ok {
			logger.Info("parsed agent output from array match", "events", len(events))
			return Result{Strategy: StrategyRegexMatch, Count: len(events), Events: events}
		}
		logger.Warn("failed to parse JSON array from text")
	}

	// Strategy 3: the entire text as JSON.
	if events, ok := repairAndDecode(text); ok {
		logger.Info("parsed entire agent output as JSON", "events", len(events))
		return Result{Strategy: StrategyEntireText, Count: len(events), Events: events}
	}

	// Strategy 4: substring between the first '[' and the last ']'.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end != -1 && start < end {
		if events, ok := repairAndDecode(text[start : end+1]); ok {
			logger.Info("parsed agent output via substring extraction", "events", len(events))
			return Result{Strategy: StrategySubstring, Count: len(events), Events: events}
		}
		logger.Warn("failed to parse JSON substring")
	}

	// Strategy 5: aggressive recovery, stitching together every complete
	// object fragment that carries a title key.
	if objects := titleGroupRe.FindAllString(text, -1); len(objects) > 0 {
		reconstructed := "[" + strings.Join(objects, ",") + "]"
		if events, ok := repairAndDecode(reconstructed); ok {
			logger.Info("parsed agent output by object extraction", "events", len(events))
			return Result{Strategy: StrategyObjects, Count: len(events), Events: events}
		}
		logger.Warn("failed to parse extracted objects")
	}

	logger.Warn("could not extract events from agent output",
		"head", truncate(text, 500))
	return Result{Strategy: StrategyNone}
}

func repairAndDecode(s string) ([]event.Candidate, bool) {
	repaired := RepairJSON(s)

	var events []event.Candidate
	if err := json.Unmarshal([]byte(repaired), &events); err != nil {
		return nil, false
	}
	if len(events) == 0 {
		return nil, false
	}
	return events, true
}

// RepairJSON patches the common truncation damage seen in agent output:
// unbalanced brackets, a trailing comma, or a property cut off mid-string.
func RepairJSON(s string) string {
	openBrackets := strings.Count(s, "[")
	closeBrackets := strings.Count(s, "]")
	openBraces := strings.Count(s, "{")
	closeBraces := strings.Count(s, "}")

	if openBrackets > closeBrackets {
		s += strings.Repeat("]", openBrackets-closeBrackets)
		logger.Debug("repair added closing brackets", "count", openBrackets-closeBrackets)
	}
	if openBraces > closeBraces {
		s += strings.Repeat("}", openBraces-closeBraces)
		logger.Debug("repair added closing braces", "count", openBraces-closeBraces)
	}

	if trimmed := strings.TrimRight(s, " \t\r\n"); strings.HasSuffix(trimmed, ",") {
		s = trimmed[:len(trimmed)-1]
		logger.Debug("repair removed trailing comma")
	}

	// A quote after the last closing structure means a property was cut off
	// mid-string; drop everything after the last complete structure.
	lastQuote := strings.LastIndex(s, `"`)
	lastBrace := strings.LastIndex(s, "}")
	lastBracket := strings.LastIndex(s, "]")
	if lastQuote > lastBrace && lastQuote > lastBracket {
		if lastBrace > lastBracket {
			s = s[:lastBrace+1]
			if openBrackets > closeBrackets {
				s += "]"
			}
		} else if lastBracket != -1 {
			s = s[:lastBracket+1]
		}
		logger.Debug("repair truncated dangling property")
	}

	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
