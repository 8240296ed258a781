package notify

import (
	"time"

	"wager-engine/internal/wager"
)

// Target is one operator webhook. Empty Games or Events means all of them.
type Target struct {
	Platform string   `json:"platform"`
	Endpoint string   `json:"endpoint"`
	Secret   string   `json:"secret"`
	Games    []string `json:"games"`
	Events   []string `json:"events"`
	Enabled  bool     `json:"enabled"`
}

type Config struct {
	Enabled             bool
	Targets             []Target
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

type Event struct {
	Type string
	Bet  wager.Bet
}

type job struct {
	Target  Target
	Event   Event
	Attempt int
}

func (j job) key() string {
	return targetKey(j.Target)
}

func targetKey(t Target) string {
	return t.Platform + "|" + t.Endpoint
}
