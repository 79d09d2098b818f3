package tool

import (
	"math/rand"
	"sync"
)

// speechState remembers the last AUTO-generated phrase per scope key, so
// a "session" scope reuses the same filler across calls in one execution
// while a "call" scope regenerates every time.
type speechState struct {
	mu    sync.Mutex
	cache map[string]string
}

var globalSpeechState = &speechState{cache: make(map[string]string)}

// SelectSpeech returns the filler line to speak before a tool call, or
// "" if none should be spoken. scopeKey identifies the reuse scope
// (typically executionID) for Mode == SpeechAuto with Scope == "session".
func SelectSpeech(cfg PreToolSpeechConfig, scopeKey string, generate func() string) string {
	if !cfg.Enabled {
		return ""
	}
	switch cfg.Mode {
	case SpeechConstant:
		if len(cfg.Phrases) > 0 {
			return cfg.Phrases[0]
		}
		return ""
	case SpeechRandom:
		if len(cfg.Phrases) == 0 {
			return ""
		}
		return cfg.Phrases[rand.Intn(len(cfg.Phrases))] // #nosec G404 -- filler phrase selection, not security-sensitive
	case SpeechAuto:
		if cfg.Scope == "session" {
			globalSpeechState.mu.Lock()
			defer globalSpeechState.mu.Unlock()
			if line, ok := globalSpeechState.cache[scopeKey]; ok {
				return line
			}
			line := ""
			if generate != nil {
				line = generate()
			}
			globalSpeechState.cache[scopeKey] = line
			return line
		}
		if generate != nil {
			return generate()
		}
		return ""
	default:
		return ""
	}
}
