package mcpserver

import (
	"context"

	"wager-engine/internal/engine"
	"wager-engine/internal/slip"

	"github.com/mark3labs/mcp-go/mcp"
)

var detailsDescription = "Game settings, one key per game: " +
	`{"coinflip":{"side":"heads"}}, {"dice":{"target":50,"direction":"under"}}, {"limbo":{"target":2}}, ` +
	`{"mines":{"mine_count":3}}, {"towers":{"difficulty":"easy"}}, {"roulette":[{"kind":"straight","number":17}]}`

func (s *Server) registerSlipTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"preview_proposal",
			mcp.WithDescription("Price a wager without placing it"),
			mcp.WithString("game_type", mcp.Required(), mcp.Description("coinflip|dice|limbo|mines|towers|roulette")),
			mcp.WithObject("details", mcp.Required(), mcp.Description(detailsDescription)),
			mcp.WithString("wager_amount", mcp.Required(), mcp.Description("Stake as a decimal string, e.g. \"10.00\"")),
		),
		s.handlePreviewProposal,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_slip",
			mcp.WithDescription("Submit a bet slip. The bet stays pending until payment is confirmed"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithArray("entries", mcp.Required(),
				mcp.Description("Slip entries, each {game_type, details, wager_amount}. Only roulette takes more than one"),
				mcp.Items(map[string]any{"type": "object"}),
			),
			mcp.WithString("client_seed", mcp.Description("Optional client seed for the fairness commitment")),
			mcp.WithString("request_id", mcp.Description("Optional idempotency key; resubmitting with the same key returns the original bet")),
		),
		s.handleSubmitSlip,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"confirm_bet",
			mcp.WithDescription("Confirm payment for a pending bet (operator only)"),
			mcp.WithString("admin_key", mcp.Required(), mcp.Description("Operator key")),
			mcp.WithString("bet_id", mcp.Required(), mcp.Description("Bet id")),
		),
		s.handleConfirmBet,
	)
}

func (s *Server) handlePreviewProposal(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var entry slip.Entry
	if err := decodeArgs(request, &entry); err != nil {
		return toolError("invalid_parameters", err.Error()), nil
	}
	p, err := entry.Proposal(s.engine.Calculator())
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(p), nil
}

func (s *Server) handleSubmitSlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Token      string       `json:"token"`
		Entries    []slip.Entry `json:"entries"`
		ClientSeed string       `json:"client_seed"`
		RequestID  string       `json:"request_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return toolError("invalid_parameters", err.Error()), nil
	}
	player, errResp := s.authPlayer(args.Token)
	if errResp != nil {
		return errResp, nil
	}
	proposals, err := slip.Proposals(s.engine.Calculator(), args.Entries)
	if err != nil {
		return domainError(err), nil
	}
	bet, err := s.engine.SubmitSlip(ctx, engine.SubmitRequest{
		PlayerHandle:  player.Handle,
		ContactHandle: player.Contact,
		ClientSeed:    args.ClientSeed,
		Entries:       proposals,
		RequestID:     args.RequestID,
	})
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(bet), nil
}

func (s *Server) handleConfirmBet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if errResp := s.authAdmin(request.GetString("admin_key", "")); errResp != nil {
		return errResp, nil
	}
	betID, err := request.RequireString("bet_id")
	if err != nil {
		return toolError("invalid_parameters", err.Error()), nil
	}
	res, err := s.engine.ConfirmBet(ctx, betID)
	if err != nil {
		return domainError(err), nil
	}
	return toolResult(res), nil
}
