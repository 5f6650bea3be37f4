package viewdto

// Key names carried by KeyMessage.
const (
	KeyUp     = "up"
	KeyDown   = "down"
	KeySelect = "select"
	KeyBack   = "back"
)

// KeyMessage is one remote keypad press.
type KeyMessage struct {
	Key string `json:"key"`
}
