package session

import "wager-engine/internal/wager"

type CellView struct {
	Index    int   `json:"index"`
	Level    int   `json:"level"`
	Revealed bool  `json:"revealed"`
	Hazard   *bool `json:"hazard,omitempty"`
}

type View struct {
	BetID             string         `json:"bet_id"`
	Game              wager.GameType `json:"game"`
	State             State          `json:"state"`
	Geometry          Geometry       `json:"geometry"`
	CurrentMultiplier float64        `json:"current_multiplier"`
	Level             int            `json:"level"`
	Cells             []CellView     `json:"cells"`
	Log               []RevealEntry  `json:"log"`
}

// View exposes hazards only for revealed cells until the session is over.
func (s *Session) View() View {
	over := s.State.Terminal()
	cells := make([]CellView, len(s.Cells))
	for i, c := range s.Cells {
		cells[i] = CellView{Index: c.Index, Level: c.Level, Revealed: c.Revealed}
		if over || c.Revealed {
			hazard := c.Hazard
			cells[i].Hazard = &hazard
		}
	}
	log := make([]RevealEntry, len(s.Log))
	copy(log, s.Log)
	return View{
		BetID:             s.BetID,
		Game:              s.Game,
		State:             s.State,
		Geometry:          s.Geometry,
		CurrentMultiplier: s.CurrentMultiplier,
		Level:             s.Level,
		Cells:             cells,
		Log:               log,
	}
}
