package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPrompt asks the client a question; the next line is the answer.
	EventPrompt EventKind = iota
	// EventWelcome greets a freshly registered client.
	EventWelcome
	// EventUserJoined notifies clients about a newly registered user.
	EventUserJoined
	// EventUserLeft notifies clients about a departed user.
	EventUserLeft
	// EventBroadcast carries a message sent to everyone.
	EventBroadcast
	// EventDirect carries a message sent to exactly one recipient.
	EventDirect
	// EventNames lists connected display names.
	EventNames
	// EventShutdown announces that the server is stopping.
	EventShutdown
	// EventNotice is an untagged informational line.
	EventNotice
	// EventError notifies a client about a domain error.
	EventError
	// EventLoginPrompt asks an unregistered session for its display name.
	EventLoginPrompt

	// Group events
	// EventGroupCreated confirms group creation to its creator.
	EventGroupCreated
	// EventGroupEnrolled tells a user that someone added them to a group.
	EventGroupEnrolled
	// EventGroupMembersAdded confirms an add to the requesting admin.
	EventGroupMembersAdded
	// EventGroupAddedNotice informs the rest of the group about an add.
	EventGroupAddedNotice
	// EventGroupMessage carries a message sent to a group.
	EventGroupMessage
	// EventGroupRemoved tells a user an admin removed them from a group.
	EventGroupRemoved
	// EventGroupMembersRemoved confirms a removal to the requesting admin.
	EventGroupMembersRemoved
	// EventGroupRemovedNotice informs the rest of the group about a removal.
	EventGroupRemovedNotice
	// EventGroupPromoted tells a user they became an admin.
	EventGroupPromoted
	// EventGroupAuthorized confirms a promotion to the requesting admin.
	EventGroupAuthorized
	// EventGroupPromotedNotice informs the rest of the group about a promotion.
	EventGroupPromotedNotice
	// EventGroupLeft confirms a leave to the leaving user.
	EventGroupLeft
	// EventGroupMemberLeft informs the group that someone left.
	EventGroupMemberLeft
	// EventGroupDeleted confirms deletion to the requesting admin.
	EventGroupDeleted
	// EventGroupDisbanded tells the other participants a group was deleted.
	EventGroupDisbanded
	// EventGroupList lists the groups the client belongs to.
	EventGroupList
	// EventGroupMembers lists the admins and members of a group.
	EventGroupMembers
)

var eventKindNames = map[EventKind]string{
	EventPrompt:              "prompt",
	EventWelcome:             "welcome",
	EventUserJoined:          "user_joined",
	EventUserLeft:            "user_left",
	EventBroadcast:           "broadcast",
	EventDirect:              "direct",
	EventNames:               "names",
	EventShutdown:            "shutdown",
	EventNotice:              "notice",
	EventError:               "error",
	EventLoginPrompt:         "login_prompt",
	EventGroupCreated:        "group_created",
	EventGroupEnrolled:       "group_enrolled",
	EventGroupMembersAdded:   "group_members_added",
	EventGroupAddedNotice:    "group_added_notice",
	EventGroupMessage:        "group_message",
	EventGroupRemoved:        "group_removed",
	EventGroupMembersRemoved: "group_members_removed",
	EventGroupRemovedNotice:  "group_removed_notice",
	EventGroupPromoted:       "group_promoted",
	EventGroupAuthorized:     "group_authorized",
	EventGroupPromotedNotice: "group_promoted_notice",
	EventGroupLeft:           "group_left",
	EventGroupMemberLeft:     "group_member_left",
	EventGroupDeleted:        "group_deleted",
	EventGroupDisbanded:      "group_disbanded",
	EventGroupList:           "group_list",
	EventGroupMembers:        "group_members",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
// Events may be shared between recipients and must not be mutated after send.
type Event struct {
	Kind    EventKind
	User    string   // actor or subject, depending on Kind
	Group   string   // group name for group events
	Names   []string // affected users, connected users or group names
	Admins  []string // EventGroupMembers
	Members []string // EventGroupMembers
	Self    bool     // EventGroupMessage delivered back to its sender
	Text    string   // EventPrompt / EventNotice
	Message Message
	Error   *CoreError
}
