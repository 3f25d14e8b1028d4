package conversation

import "strings"

// State is the per-chat position in the conversation
type State int

const (
	// Idle is every chat before its first /start.
	Idle State = iota
	WaitingForURL
	WaitingForRequests
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case WaitingForURL:
		return "waiting_for_url"
	case WaitingForRequests:
		return "waiting_for_requests"
	default:
		return "unknown"
	}
}

// EventKind classifies an inbound message for the transition table
type EventKind int

const (
	EventStart EventKind = iota
	EventDone
	EventList
	EventClean
	EventUnknownCommand
	EventURL
	EventText
	// EventOther is a message with no text, such as a sticker or photo.
	EventOther
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventDone:
		return "done"
	case EventList:
		return "list"
	case EventClean:
		return "clean"
	case EventUnknownCommand:
		return "unknown_command"
	case EventURL:
		return "url"
	case EventText:
		return "text"
	default:
		return "other"
	}
}

// Message is the transport-neutral view of an inbound chat message.
type Message struct {
	ChatID int64
	// Command is the command name without the leading slash, empty for
	// plain messages.
	Command string
	Text    string
	// URLs holds the URL entities the transport detected, in order.
	URLs      []string
	RequestID string
}

var commands = map[string]EventKind{
	"start": EventStart,
	"done":  EventDone,
	"list":  EventList,
	"clean": EventClean,
}

// Classify maps a message to its event kind. Commands win over URLs, and
// URLs win over plain text.
func Classify(msg Message) EventKind {
	if msg.Command != "" {
		if kind, ok := commands[strings.ToLower(msg.Command)]; ok {
			return kind
		}
		return EventUnknownCommand
	}
	if len(msg.URLs) > 0 {
		return EventURL
	}
	if strings.TrimSpace(msg.Text) != "" {
		return EventText
	}
	return EventOther
}
