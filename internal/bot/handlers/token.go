package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned for callback data that matches no known
// token shape.
var ErrUnknownAction = errors.New("unknown callback action")

// Action is the closed set of operations a button press can request.
// Tokens are parsed once at the dispatcher boundary; handlers switch over
// the concrete types instead of re-splitting strings.
type Action interface {
	isAction()
}

// RequestAction asks for delivery of a specific channel message.
// ChannelID may be zero in single-channel tokens; the dispatcher resolves
// it against the sole registered channel.
type RequestAction struct {
	ChannelID int64
	MessageID int
}

// AdminActionKind enumerates the admin menu branches.
type AdminActionKind string

const (
	AdminStats        AdminActionKind = "stats"
	AdminRequestLogs  AdminActionKind = "logs"
	AdminActivityLogs AdminActionKind = "activity_logs"
	AdminAddFile      AdminActionKind = "add_file"
	AdminBroadcast    AdminActionKind = "broadcast"
	AdminUsers        AdminActionKind = "users"
	AdminChannels     AdminActionKind = "manage_channels"
)

// AdminAction requests one of the admin menu branches.
type AdminAction struct {
	Kind AdminActionKind
}

// ChannelActionKind enumerates channel management operations.
type ChannelActionKind string

const (
	ChannelAddPrompt ChannelActionKind = "add"
	ChannelView      ChannelActionKind = "view"
	ChannelRemove    ChannelActionKind = "remove"
	ChannelBack      ChannelActionKind = "back"
)

// ChannelAction requests a channel management operation. ChannelID is set
// only for the view and remove kinds.
type ChannelAction struct {
	Kind      ChannelActionKind
	ChannelID int64
}

func (RequestAction) isAction() {}
func (AdminAction) isAction()   {}
func (ChannelAction) isAction() {}

// Encode renders the action as callback data.
func (a RequestAction) Encode() string {
	if a.ChannelID == 0 {
		return fmt.Sprintf("request:%d", a.MessageID)
	}
	return fmt.Sprintf("request:%d:%d", a.ChannelID, a.MessageID)
}

// Encode renders the action as callback data.
func (a AdminAction) Encode() string {
	return "admin_" + string(a.Kind)
}

// Encode renders the action as callback data.
func (a ChannelAction) Encode() string {
	switch a.Kind {
	case ChannelAddPrompt:
		return "add_storage_channel"
	case ChannelBack:
		return "back_to_admin"
	case ChannelView:
		return fmt.Sprintf("view_channel_%d", a.ChannelID)
	case ChannelRemove:
		return fmt.Sprintf("remove_channel_%d", a.ChannelID)
	}
	return ""
}

var adminKinds = map[AdminActionKind]bool{
	AdminStats:        true,
	AdminRequestLogs:  true,
	AdminActivityLogs: true,
	AdminAddFile:      true,
	AdminBroadcast:    true,
	AdminUsers:        true,
	AdminChannels:     true,
}

// ParseAction decodes callback data into its Action variant.
func ParseAction(data string) (Action, error) {
	switch {
	case strings.HasPrefix(data, "request:"):
		return parseRequestAction(data)

	case data == "add_storage_channel":
		return ChannelAction{Kind: ChannelAddPrompt}, nil

	case data == "back_to_admin":
		return ChannelAction{Kind: ChannelBack}, nil

	case strings.HasPrefix(data, "view_channel_"):
		return parseChannelIDAction(ChannelView, strings.TrimPrefix(data, "view_channel_"), data)

	case strings.HasPrefix(data, "remove_channel_"):
		return parseChannelIDAction(ChannelRemove, strings.TrimPrefix(data, "remove_channel_"), data)

	case strings.HasPrefix(data, "admin_"):
		kind := AdminActionKind(strings.TrimPrefix(data, "admin_"))
		if !adminKinds[kind] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return AdminAction{Kind: kind}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}

func parseRequestAction(data string) (Action, error) {
	parts := strings.Split(strings.TrimPrefix(data, "request:"), ":")
	switch len(parts) {
	case 1:
		messageID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return RequestAction{MessageID: messageID}, nil

	case 2:
		channelID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		messageID, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return RequestAction{ChannelID: channelID, MessageID: messageID}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}

func parseChannelIDAction(kind ChannelActionKind, raw, data string) (Action, error) {
	channelID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
	}
	return ChannelAction{Kind: kind, ChannelID: channelID}, nil
}
