package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wager-engine/internal/engine"
	"wager-engine/internal/fairness"
	"wager-engine/internal/payout"
	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fairness-verify:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fairness-verify", flag.ContinueOnError)
	var (
		serverSeed = fs.String("server-seed", "", "revealed server seed")
		seedHash   = fs.String("hash", "", "server seed hash published when the bet was placed")
		clientSeed = fs.String("client-seed", "", "client seed")
		nonces     = fs.String("nonces", "", "comma separated nonce sequence")
		game       = fs.String("game", "", "coinflip, dice, limbo, roulette, mines or towers")
		details    = fs.String("details", "{}", "game details as JSON, e.g. {\"limbo\":{\"target\":2}}")
		amount     = fs.String("wager", "1", "wager amount")
		houseEdge  = fs.Float64("house-edge", 0.01, "house edge recorded on the bet (rules.house_edge)")
		skulls     = fs.Int("tower-skulls", 0, "skulls per tower level recorded on the bet; 0 uses the default tiers")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	seq, err := parseNonces(*nonces)
	if err != nil {
		return err
	}
	gt, err := wager.ParseGameType(*game)
	if err != nil {
		return err
	}
	var d wager.Details
	if err := json.Unmarshal([]byte(*details), &d); err != nil {
		return fmt.Errorf("details: %w", err)
	}
	if err := d.CheckShape(gt); err != nil {
		return err
	}
	w, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("wager: %w", err)
	}
	bet := wager.Bet{GameType: gt, Details: d, WagerAmount: w, Rules: wager.Rules{HouseEdge: *houseEdge, TowerSkulls: *skulls}}
	if gt == wager.GameRoulette {
		bet.WagerAmount = payout.RouletteTotal(d.Roulette)
	}
	res, err := engine.Replay(bet, fairness.Reveal{
		ServerSeed:     *serverSeed,
		ServerSeedHash: *seedHash,
		ClientSeed:     *clientSeed,
		NonceSequence:  seq,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func parseNonces(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("nonces are required")
	}
	parts := strings.Split(raw, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nonce %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
