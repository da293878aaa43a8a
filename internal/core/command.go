package core

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandBroadcast delivers text to every other session.
	CommandBroadcast CommandKind = iota
	// CommandDirect delivers text to one named session.
	CommandDirect
	// CommandNames lists connected users.
	CommandNames
	// CommandQuit ends the session.
	CommandQuit
	// CommandGroupSet creates a group.
	CommandGroupSet
	// CommandGroupSend sends text to a group.
	CommandGroupSend
	// CommandGroupAdd adds members to a group.
	CommandGroupAdd
	// CommandGroupRemove removes members or admins from a group.
	CommandGroupRemove
	// CommandGroupAuthorize promotes members to admins.
	CommandGroupAuthorize
	// CommandGroupLeave removes the caller from a group.
	CommandGroupLeave
	// CommandGroupDelete deletes a group after confirmation.
	CommandGroupDelete
	// CommandGroupList lists the caller's groups.
	CommandGroupList
	// CommandGroupMembers lists a group's admins and members.
	CommandGroupMembers
)

const (
	keywordNames = "@names"
	keywordQuit  = "@quit"
	keywordGroup = "@group"
)

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Group  string
	Target string   // direct recipient, or optional username for leave
	Names  []string // member list arguments
	Text   string
}

// ParseCommand resolves one inbound line into a Command.
// A blank line yields (nil, nil) and should be ignored.
func ParseCommand(line string) (*Command, *CoreError) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	head, rest := nextField(line)
	switch {
	case head == keywordNames:
		return &Command{Kind: CommandNames}, nil
	case head == keywordQuit:
		return &Command{Kind: CommandQuit}, nil
	case head == keywordGroup:
		return parseGroupCommand(rest)
	case strings.HasPrefix(head, "@") && len(head) > 1:
		if rest == "" {
			return nil, coreError(ErrCodeInvalidSyntax, "Invalid input. Please provide a message after the recipient.")
		}
		return &Command{Kind: CommandDirect, Target: head[1:], Text: rest}, nil
	default:
		return &Command{Kind: CommandBroadcast, Text: strings.TrimLeftFunc(line, unicode.IsSpace)}, nil
	}
}

func parseGroupCommand(args string) (*Command, *CoreError) {
	action, rest := nextField(args)
	switch action {
	case "set":
		return parseGroupMembersCommand(CommandGroupSet, rest,
			"Invalid input. Please provide a group name and at least one member.")
	case "add":
		return parseGroupMembersCommand(CommandGroupAdd, rest,
			"Invalid input. Please provide a group name and at least one member to add.")
	case "remove":
		return parseGroupMembersCommand(CommandGroupRemove, rest,
			"Invalid input. Please provide a group name and at least one member to remove.")
	case "authorize":
		return parseGroupMembersCommand(CommandGroupAuthorize, rest,
			"Invalid input. Please provide a group name and at least one member to authorize.")
	case "send":
		group, text := nextField(rest)
		if group == "" || text == "" {
			return nil, coreError(ErrCodeInvalidSyntax, "Invalid input. Please provide a group name and a message.")
		}
		return &Command{Kind: CommandGroupSend, Group: group, Text: text}, nil
	case "leave":
		group, tail := nextField(rest)
		if group == "" {
			return nil, coreError(ErrCodeInvalidSyntax, "Invalid input. Please provide a group name.")
		}
		user, extra := nextField(tail)
		if extra != "" {
			return nil, coreError(ErrCodeInvalidSyntax, "Invalid input. Usage: @group leave <group> [username]")
		}
		return &Command{Kind: CommandGroupLeave, Group: group, Target: user}, nil
	case "delete", "members":
		group, _ := nextField(rest)
		if group == "" {
			return nil, coreError(ErrCodeInvalidSyntax, "Invalid input. Please provide a group name.")
		}
		kind := CommandGroupDelete
		if action == "members" {
			kind = CommandGroupMembers
		}
		return &Command{Kind: kind, Group: group}, nil
	case "list":
		return &Command{Kind: CommandGroupList}, nil
	default:
		return nil, coreError(ErrCodeInvalidGroupCommand, "Invalid group command")
	}
}

func parseGroupMembersCommand(kind CommandKind, args, usage string) (*Command, *CoreError) {
	group, rest := nextField(args)
	names := splitNames(rest)
	if group == "" || len(names) == 0 {
		return nil, coreError(ErrCodeInvalidSyntax, usage)
	}
	return &Command{Kind: kind, Group: group, Names: names}, nil
}

// splitNames splits a comma separated list, trimming every entry and
// dropping empty and repeated ones.
func splitNames(list string) []string {
	names := lo.FilterMap(strings.Split(list, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
	return lo.Uniq(names)
}

// nextField returns the first whitespace-delimited token of s and the
// remainder with leading whitespace removed.
func nextField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
