// Package notify holds the transient user-feedback notification slot and the
// Notice value that state collections return to describe what to show.
package notify

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Notice is the side effect a collection mutation asks its caller to raise.
// The zero Notice means nothing should be shown.
type Notice struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// Success builds a success notice; Info and Warning build their own kinds.
func Success(msg string) Notice { return Notice{Message: msg, Kind: KindSuccess} }
func Info(msg string) Notice    { return Notice{Message: msg, Kind: KindInfo} }
func Warning(msg string) Notice { return Notice{Message: msg, Kind: KindWarning} }

// IsZero reports whether the notice carries nothing to display.
func (n Notice) IsZero() bool { return n.Message == "" }
