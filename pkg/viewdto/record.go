package viewdto

import "time"

// GameRecord is an archived game. FinalFEN is the position the game ended in.
type GameRecord struct {
	ID              int64         `json:"id"`
	GameUUID        string        `json:"game_uuid"`
	HumanPlaysBlack bool          `json:"human_plays_black"`
	SkillLevel      int           `json:"skill_level"`
	NodeBudget      int           `json:"node_budget"`
	Result          string        `json:"result"`
	ResultMethod    string        `json:"result_method"`
	Plies           int           `json:"plies"`
	MovesUCI        []string      `json:"moves_uci"`
	MovesSAN        []string      `json:"moves_san"`
	PGN             string        `json:"pgn"`
	FinalFEN        string        `json:"final_fen"`
	WhiteClock      time.Duration `json:"white_clock"`
	BlackClock      time.Duration `json:"black_clock"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         time.Time     `json:"ended_at"`
	Duration        time.Duration `json:"duration"`
}
