package notify

import "strings"

func matchTargets(targets []Target, ev Event) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		if !allowed(t.Games, string(ev.Bet.GameType)) || !allowed(t.Events, ev.Type) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func allowed(allowlist []string, v string) bool {
	if len(allowlist) == 0 {
		return true
	}
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowlist {
		if a != "" && a == v {
			return true
		}
	}
	return false
}
