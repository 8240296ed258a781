package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wager-engine/internal/betfeed"
	"wager-engine/internal/config"
	"wager-engine/internal/engine"
	"wager-engine/internal/fairness"
	"wager-engine/internal/logging"
	"wager-engine/internal/payout"
	"wager-engine/internal/wager"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadWatcher()
	if err != nil {
		log.Fatal().Err(err).Msg("load watcher config failed")
	}
	chk := &checker{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		token:  cfg.PlayerToken,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	wsURL, err := url.Parse(cfg.WSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("bad websocket url")
	}
	q := wsURL.Query()
	q.Set("token", cfg.PlayerToken)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("websocket dial failed")
	}
	defer conn.Close()
	log.Info().Str("url", cfg.WSURL).Msg("watching bets")

	for {
		var ev betfeed.Event
		if err := conn.ReadJSON(&ev); err != nil {
			log.Info().Err(err).Msg("feed closed")
			return
		}
		log.Debug().Str("bet_id", ev.BetID).Str("event", ev.Event).Msg("event")
		if ev.Event != engine.EventBetSettled {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		rep, err := chk.Verify(ctx, ev.BetID)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("bet_id", ev.BetID).Msg("fairness check failed")
			continue
		}
		log.Info().
			Str("bet_id", rep.BetID).
			Str("game", string(rep.Game)).
			Int("draws", rep.Draws).
			Bool("won", rep.Won).
			Str("payout", rep.Payout).
			Msg("bet verified")
	}
}

var errMismatch = errors.New("replayed result differs from settled bet")

// report summarises one verified bet.
type report struct {
	BetID  string
	Game   wager.GameType
	Draws  int
	Won    bool
	Payout string
}

type checker struct {
	apiURL string
	token  string
	client *http.Client
}

func (c *checker) Verify(ctx context.Context, betID string) (report, error) {
	var view engine.BetView
	if err := c.get(ctx, "/api/bets/"+url.PathEscape(betID), &view); err != nil {
		return report{}, err
	}
	var rev fairness.Reveal
	if err := c.get(ctx, "/api/bets/"+url.PathEscape(betID)+"/fairness", &rev); err != nil {
		return report{}, err
	}
	bet := view.Bet
	if bet.Outcome == nil {
		return report{}, fmt.Errorf("bet %s has no outcome", betID)
	}
	if rev.ServerSeedHash != bet.ServerSeedHash {
		return report{}, fmt.Errorf("%w: revealed hash differs from the one committed at placement", errMismatch)
	}
	if rev.Rules != bet.Rules {
		return report{}, fmt.Errorf("%w: revealed rules %+v, bet placed under %+v", errMismatch, rev.Rules, bet.Rules)
	}
	got, err := engine.Replay(bet, rev)
	if err != nil {
		return report{}, err
	}
	if got.Outcome != nil {
		if got.Outcome.Won != bet.Outcome.Won || !got.Outcome.Payout.Equal(bet.Outcome.Payout) {
			return report{}, fmt.Errorf("%w: replay won=%v payout=%s", errMismatch, got.Outcome.Won, got.Outcome.Payout)
		}
	} else if view.Session != nil {
		hazards := map[int]bool{}
		for row, tiles := range got.Layout {
			for _, t := range tiles {
				if bet.GameType == wager.GameTowers {
					t += row * payout.TowerTiles
				}
				hazards[t] = true
			}
		}
		for _, cell := range view.Session.Cells {
			if cell.Hazard != nil && *cell.Hazard != hazards[cell.Index] {
				return report{}, fmt.Errorf("%w: cell %d", errMismatch, cell.Index)
			}
		}
	}
	return report{
		BetID:  bet.ID,
		Game:   bet.GameType,
		Draws:  len(got.Draws),
		Won:    bet.Outcome.Won,
		Payout: bet.Outcome.Payout.String(),
	}, nil
}

func (c *checker) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("GET %s: status %d %s", path, resp.StatusCode, body.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
