package command

import (
	"errors"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// ActionPrefix is the first segment of every operator action code.
const ActionPrefix = "signal"

// ActionSeparator joins the segments of an action code.
const ActionSeparator = "_"

// ActionTag is the decision carried by an action code.
type ActionTag string

const (
	TagAvailable   ActionTag = "available"
	TagUnavailable ActionTag = "unavailable"
)

var (
	// ErrInvalidData is returned for codes with the wrong prefix or an
	// unrecognized tag.
	ErrInvalidData = errors.New("invalid action data")
	// ErrInvalidClientID is returned when a targeted code has no client id
	// or one that does not parse.
	ErrInvalidClientID = errors.New("invalid client id")
)

// Action is a decoded operator decision. Client is only meaningful for
// TagAvailable; TagUnavailable is always global.
type Action struct {
	Tag    ActionTag
	Client model.ClientID
}

// Global reports whether the action applies to every pending client.
func (a Action) Global() bool {
	return a.Tag == TagUnavailable
}

// EncodeAction builds the code for tag targeted at id. Unavailable codes also
// carry the id so each prompt's buttons are distinct, but decoding ignores it.
func EncodeAction(tag ActionTag, id model.ClientID) string {
	return strings.Join([]string{ActionPrefix, string(tag), id.String()}, ActionSeparator)
}

// DecodeAction parses an action code of the form
// "signal_available_<id>" or "signal_unavailable[_<anything>]".
func DecodeAction(code string) (Action, error) {
	parts := strings.SplitN(code, ActionSeparator, 3)
	if parts[0] != ActionPrefix || len(parts) < 2 {
		return Action{}, ErrInvalidData
	}

	switch tag := ActionTag(parts[1]); tag {
	case TagUnavailable:
		return Action{Tag: tag}, nil
	case TagAvailable:
		if len(parts) < 3 || parts[2] == "" {
			return Action{}, ErrInvalidClientID
		}
		// Codes come from EncodeAction, so the id is strict decimal.
		n, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Action{}, ErrInvalidClientID
		}
		return Action{Tag: tag, Client: model.ClientID(n)}, nil
	default:
		return Action{}, ErrInvalidData
	}
}
