// Package bench holds the opponent roster, the sequential match scheduler,
// and the per-opponent summarizer.
package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Opponents is the built-in benchmark roster. Keys are stable CLI names;
// values are the fully-qualified Java classes the engine loads. The roster
// only grows; removing or remapping a key would silently change what old
// results meant.
var Opponents = map[string]string{
	"random":      "ai.RandomAI",
	"worker_rush": "ai.abstraction.WorkerRush",
	"light_rush":  "ai.abstraction.LightRush",
	"naive_mcts":  "ai.mcts.naivemcts.NaiveMCTS",
	"mayari":      "mayariBot.mayari",
	"coac":        "ai.coac.CoacAI",
}

// OpponentKeys returns the roster keys sorted.
func OpponentKeys() []string {
	keys := make([]string, 0, len(Opponents))
	for k := range Opponents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolveOpponents parses a comma-separated opponent list, preserving
// order. Unknown keys are rejected with the valid set in the message.
func ResolveOpponents(arg string) ([]string, error) {
	var keys, unknown []string
	for _, raw := range strings.Split(arg, ",") {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		if _, ok := Opponents[key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		keys = append(keys, key)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown opponents: %s (valid keys: %s)",
			strings.Join(unknown, ", "), strings.Join(OpponentKeys(), ", "))
	}
	if len(keys) == 0 {
		return nil, errors.New("no opponents selected")
	}
	return keys, nil
}

// ResolveMaps parses a comma-separated map list. Relative entries are
// joined to the engine dir; every map must exist.
func ResolveMaps(engineDir, arg string) ([]string, error) {
	var out []string
	for _, raw := range strings.Split(arg, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(engineDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("map not found: %s", path)
		}
		out = append(out, path)
	}
	if len(out) == 0 {
		return nil, errors.New("no maps selected")
	}
	return out, nil
}
