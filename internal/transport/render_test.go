package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/linechat-server/internal/core"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		ev   core.Event
		want string
	}{
		{"login prompt", core.Event{Kind: core.EventLoginPrompt}, "Enter your username: "},
		{"welcome", core.Event{Kind: core.EventWelcome, User: "alice"}, "[Welcome alice!]"},
		{"joined", core.Event{Kind: core.EventUserJoined, User: "bob"}, "[bob joined]"},
		{"exited", core.Event{Kind: core.EventUserLeft, User: "bob"}, "[bob exited]"},
		{"broadcast", core.Event{Kind: core.EventBroadcast, Message: core.Message{From: "alice", Text: "hi"}}, "[alice]: hi"},
		{"names", core.Event{Kind: core.EventNames, Names: []string{"alice", "bob"}}, "Connected users: alice, bob"},
		{"own group message", core.Event{Kind: core.EventGroupMessage, Group: "team", Self: true, Message: core.Message{From: "alice", Text: "hi"}}, "[myself (group team)]: hi"},
		{"group message", core.Event{Kind: core.EventGroupMessage, Group: "team", Message: core.Message{From: "alice", Text: "hi"}}, "[alice (group team)]: hi"},
		{"prompt", core.Event{Kind: core.EventPrompt, Text: "Do you want to delete the group 'team'? This action will remove all members. (yes/no):"},
			"[Do you want to delete the group 'team'? This action will remove all members. (yes/no):] "},
		{"notice with percent", core.Event{Kind: core.EventNotice, Text: "100% done"}, "[100% done]"},
		{"error", core.Event{Kind: core.EventError, Error: &core.CoreError{Code: core.ErrCodeNotFound, Message: "User 'zed' does not exist."}}, "[Error]: User 'zed' does not exist."},
		{"no groups", core.Event{Kind: core.EventGroupList}, "[You are not in any groups]"},
		{"members", core.Event{Kind: core.EventGroupMembers, Group: "team", Admins: []string{"alice"}},
			"[Members in team group: admins: alice; members: none]"},
		{"nobody promoted", core.Event{Kind: core.EventGroupAuthorized, Group: "team"}, "[No members were promoted]"},
		{"deleted", core.Event{Kind: core.EventGroupDisbanded, Group: "team"}, "[You have been removed from team, team has been deleted.]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Render(&tt.ev))
		})
	}
}
