package model

// Button is a selectable action attached to an outbound message. Code is the
// opaque string handed back in an action event when the button is pressed.
type Button struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Message is the content of an outbound notification.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Text is shorthand for a button-less message.
func Text(s string) Message {
	return Message{Text: s}
}
