package transport

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/linechat-server/internal/core"
)

// Render formats an event as the single line a text client receives.
// User-authored messages are tagged with their author; everything else is an
// untagged bracketed notice.
func Render(ev *core.Event) string {
	switch ev.Kind {
	case core.EventPrompt:
		return bracket(ev.Text) + " "
	case core.EventWelcome:
		return bracketf("Welcome %s!", ev.User)
	case core.EventUserJoined:
		return bracketf("%s joined", ev.User)
	case core.EventUserLeft:
		return bracketf("%s exited", ev.User)
	case core.EventBroadcast:
		return fmt.Sprintf("[%s]: %s", ev.Message.From, ev.Message.Text)
	case core.EventDirect:
		return fmt.Sprintf("[Personal Message from %s]: %s", ev.Message.From, ev.Message.Text)
	case core.EventNames:
		return "Connected users: " + strings.Join(ev.Names, ", ")
	case core.EventShutdown:
		return bracket("Server is shutting down")
	case core.EventNotice:
		return bracket(ev.Text)
	case core.EventLoginPrompt:
		return "Enter your username: "
	case core.EventError:
		if ev.Error == nil {
			return "[Error]: unknown error"
		}
		switch ev.Error.Code {
		case core.ErrCodeNameTaken, core.ErrCodeInvalidName:
			return bracket(ev.Error.Message)
		}
		return "[Error]: " + ev.Error.Message

	case core.EventGroupCreated:
		if len(ev.Names) == 0 {
			return bracketf("You created the %s group", ev.Group)
		}
		return bracketf("You created the %s group with %s", ev.Group, strings.Join(ev.Names, ", "))
	case core.EventGroupEnrolled:
		return bracketf("You are enrolled. %s added you to the %s group", ev.User, ev.Group)
	case core.EventGroupMembersAdded:
		return bracketf("You enrolled %s into the %s group", strings.Join(ev.Names, ", "), ev.Group)
	case core.EventGroupAddedNotice:
		return bracketf("%s were added to the %s group by %s", strings.Join(ev.Names, ", "), ev.Group, ev.User)
	case core.EventGroupMessage:
		from := ev.Message.From
		if ev.Self {
			from = "myself"
		}
		return fmt.Sprintf("[%s (group %s)]: %s", from, ev.Group, ev.Message.Text)
	case core.EventGroupRemoved:
		return bracketf("%s removed you from the %s group", ev.User, ev.Group)
	case core.EventGroupMembersRemoved:
		if len(ev.Names) == 0 {
			return bracket("No members were removed from the group")
		}
		return bracketf("You removed %s from the %s group", strings.Join(ev.Names, ", "), ev.Group)
	case core.EventGroupRemovedNotice:
		return bracketf("%s were removed from the %s group by %s", strings.Join(ev.Names, ", "), ev.Group, ev.User)
	case core.EventGroupPromoted:
		if ev.User == "" {
			return bracketf("You are now an admin of the %s group", ev.Group)
		}
		return bracketf("%s made you an admin of the %s group", ev.User, ev.Group)
	case core.EventGroupAuthorized:
		if len(ev.Names) == 0 {
			return bracket("No members were promoted")
		}
		return bracketf("You made %s admin(s) of the %s group", strings.Join(ev.Names, ", "), ev.Group)
	case core.EventGroupPromotedNotice:
		if ev.User == "" {
			return bracketf("%s is now an admin of the %s group", strings.Join(ev.Names, ", "), ev.Group)
		}
		return bracketf("%s made %s admin(s) of the %s group", ev.User, strings.Join(ev.Names, ", "), ev.Group)
	case core.EventGroupLeft:
		return bracketf("You have left the %s group", ev.Group)
	case core.EventGroupMemberLeft:
		return bracketf("%s has left the %s group", ev.User, ev.Group)
	case core.EventGroupDeleted:
		return bracketf("You have removed all members from %s, %s has been deleted.", ev.Group, ev.Group)
	case core.EventGroupDisbanded:
		return bracketf("You have been removed from %s, %s has been deleted.", ev.Group, ev.Group)
	case core.EventGroupList:
		if len(ev.Names) == 0 {
			return bracket("You are not in any groups")
		}
		return bracketf("Groups you are in: %s", strings.Join(ev.Names, ", "))
	case core.EventGroupMembers:
		return bracketf("Members in %s group: admins: %s; members: %s",
			ev.Group, listOrNone(ev.Admins), listOrNone(ev.Members))
	default:
		return ""
	}
}

func bracket(text string) string {
	return "[" + text + "]"
}

func bracketf(format string, args ...any) string {
	return bracket(fmt.Sprintf(format, args...))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
