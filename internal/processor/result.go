package processor

import "liquidityEngine/internal/model"

// Result aggregates every entity a command touched, for downstream
// publication. ErrorMessage is set at most once per failed command.
type Result struct {
	Position     *model.Position   `json:"position,omitempty"`
	Pool         *model.Pool       `json:"pool,omitempty"`
	Ticks        []*model.Tick     `json:"ticks,omitempty"`
	Bitmap       *model.TickBitmap `json:"bitmap,omitempty"`
	Accounts     []*model.Account  `json:"accounts,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

func (r *Result) setError(msg string) {
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	}
}
