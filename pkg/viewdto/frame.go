package viewdto

import "time"

// Tone letters used in Frame.Tones.
const (
	ToneLight     = 'L'
	ToneDark      = 'D'
	ToneHighlight = 'H'
)

// Frame is the JSON form of one displayed game view.
type Frame struct {
	Rows            [8]string    `json:"rows"`
	Tones           [8]string    `json:"tones"`
	Times           [2]string    `json:"times"`
	History         [][2]string  `json:"history"`
	Button          string       `json:"button,omitempty"`
	ButtonFocused   bool         `json:"button_focused"`
	HumanPlaysBlack bool         `json:"human_plays_black"`
	State           string       `json:"state"`
	Ply             int          `json:"ply"`
	Over            bool         `json:"over"`
	Active          bool         `json:"active"`
	Status          string       `json:"status,omitempty"`
	Menu            []MenuOption `json:"menu,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type MenuOption struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}
