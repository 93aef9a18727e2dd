package action

import (
	"errors"
	"fmt"
	"strings"

	"textexpand/internal/keys"
)

// ErrUnknownAction is returned by Decode for an unrecognized action type.
var ErrUnknownAction = errors.New("unknown action type")

// Spec is the declarative form of an action as written in a config file.
type Spec struct {
	// Type is one of "type", "paste", "key", "launch", "date".
	Type    string `yaml:"type" toml:"type" json:"type"`
	Text    string `yaml:"text,omitempty" toml:"text,omitempty" json:"text,omitempty"`
	Key     string `yaml:"key,omitempty" toml:"key,omitempty" json:"key,omitempty"`
	Command string `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"`
	Layout  string `yaml:"layout,omitempty" toml:"layout,omitempty" json:"layout,omitempty"`
}

// Decode builds the Action a Spec describes.
func Decode(s Spec) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "type", "text":
		return TypeText{Text: s.Text}, nil
	case "paste":
		return Paste{Text: s.Text}, nil
	case "key", "send":
		vk, err := keys.ParseKey(s.Key)
		if err != nil {
			return nil, err
		}
		return SendKey{Key: vk}, nil
	case "launch", "run":
		if strings.TrimSpace(s.Command) == "" {
			return nil, errors.New("launch action requires a command")
		}
		return Launch{Command: s.Command}, nil
	case "date":
		return Date{Layout: s.Layout}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, s.Type)
}
