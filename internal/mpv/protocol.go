package mpv

import (
	"strings"

	"github.com/jscyril/golang_media_player/api"
)

// Observed property ids
const (
	propTimePos = iota + 1
	propDuration
)

// Command is one JSON IPC request
type Command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// Response is either a reply to a request or an asynchronous event
type Response struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int    `json:"request_id"`
	Event     string `json:"event"`
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

func loadCommand(locator string) Command {
	return Command{Command: []any{"loadfile", locator, "replace"}}
}

func setProperty(name string, value any) Command {
	return Command{Command: []any{"set_property", name, value}}
}

func seekCommand(seconds float64) Command {
	return Command{Command: []any{"seek", seconds, "absolute"}}
}

func observeCommand(id int, name string) Command {
	return Command{Command: []any{"observe_property", id, name}}
}

// errorKind classifies the file_error of an end-file event
func errorKind(fileError string) api.ErrorKind {
	msg := strings.ToLower(fileError)
	switch {
	case strings.Contains(msg, "unrecognized"),
		strings.Contains(msg, "no audio or video"),
		strings.Contains(msg, "format"):
		return api.FormatError
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"):
		return api.AccessDeniedError
	default:
		return api.ResourceError
	}
}

func isRemote(locator string) bool {
	return strings.Contains(locator, "://")
}
