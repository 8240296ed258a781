package mcpserver

import (
	"context"
	"math"

	"wager-engine/internal/auth"
	"wager-engine/internal/engine"
	"wager-engine/internal/wager"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPlayTools() {
	betTool := func(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
		base := []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithString("bet_id", mcp.Required(), mcp.Description("Bet id")),
		}
		return mcp.NewTool(name, append(base, opts...)...)
	}

	s.mcpServer.AddTool(betTool("play_instant", "Resolve a confirmed coinflip, dice, limbo or roulette bet",
		mcp.WithString("side", mcp.Description("Coinflip only: heads|tails, overrides the slip pick")),
	), s.handlePlayInstant)
	s.mcpServer.AddTool(betTool("reveal_cell", "Reveal a mines cell (0-24) or a towers tile (0-4) on the current level",
		mcp.WithNumber("cell_index", mcp.Required(), mcp.Description("Cell or tile index")),
	), s.handleRevealCell)
	s.mcpServer.AddTool(betTool("cash_out", "Settle a mines or towers bet at its current multiplier"), s.handleCashOut)
	s.mcpServer.AddTool(betTool("get_bet", "Get a bet with its session and history"), s.handleGetBet)
	s.mcpServer.AddTool(betTool("reveal_fairness", "Reveal the server seed and nonce list of a settled bet"), s.handleRevealFairness)
}

// ownBet authenticates the caller and checks the bet is theirs.
func (s *Server) ownBet(ctx context.Context, request mcp.CallToolRequest) (auth.Player, engine.BetView, *mcp.CallToolResult) {
	player, errResp := s.authPlayer(request.GetString("token", ""))
	if errResp != nil {
		return auth.Player{}, engine.BetView{}, errResp
	}
	betID, err := request.RequireString("bet_id")
	if err != nil {
		return auth.Player{}, engine.BetView{}, toolError("invalid_parameters", err.Error())
	}
	view, err := s.engine.OwnedBet(ctx, betID, player.Handle)
	if err != nil {
		return auth.Player{}, engine.BetView{}, domainError(err)
	}
	return player, view, nil
}

func (s *Server) handlePlayInstant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, view, errResp := s.ownBet(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	var choice *engine.Choice
	if side := request.GetString("side", ""); side != "" {
		choice = &engine.Choice{Side: wager.CoinSide(side)}
	}
	res, err := s.engine.PlayInstant(ctx, view.Bet.ID, choice)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleRevealCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, view, errResp := s.ownBet(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	idx, err := request.RequireFloat("cell_index")
	if err != nil || idx != math.Trunc(idx) {
		return toolError("invalid_move", "cell_index must be a whole number"), nil
	}
	res, err := s.engine.Reveal(ctx, view.Bet.ID, int(idx))
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleCashOut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, view, errResp := s.ownBet(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	res, err := s.engine.CashOut(ctx, view.Bet.ID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleGetBet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, view, errResp := s.ownBet(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	return toolResult(view), nil
}

func (s *Server) handleRevealFairness(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, view, errResp := s.ownBet(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	rev, err := s.engine.RevealFairness(ctx, view.Bet.ID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(rev), nil
}
