package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

type promptKind int

const (
	promptDeleteGroup promptKind = iota
	promptSuccessor
)

// prompt is the awaiting-answer sub-state of a session. While it is set the
// next line from that session answers the question instead of being routed.
type prompt struct {
	kind       promptKind
	group      string
	candidates []string
	timer      *time.Timer
}

// route parses one line and applies the matching command.
func (h *Hub) route(c *Client, line string) {
	if c.departed || !c.registered {
		return
	}
	if c.prompt != nil {
		h.resolvePrompt(c, line)
		return
	}

	cmd, perr := ParseCommand(line)
	if perr != nil {
		h.log.Debug().Str("user", c.Name).Str("code", perr.Code).Msg("rejected command")
		h.sendError(c, perr)
		return
	}
	if cmd == nil {
		return
	}

	switch cmd.Kind {
	case CommandBroadcast:
		h.broadcast(c, cmd.Text)
	case CommandDirect:
		h.direct(c, cmd.Target, cmd.Text)
	case CommandNames:
		h.send(c, &Event{Kind: EventNames, Names: h.registry.Names()})
	case CommandQuit:
		h.depart(c)
	case CommandGroupSet:
		h.groupCreate(c, cmd)
	case CommandGroupSend:
		h.groupSend(c, cmd)
	case CommandGroupAdd:
		h.groupAdd(c, cmd)
	case CommandGroupRemove:
		h.groupRemove(c, cmd)
	case CommandGroupAuthorize:
		h.groupAuthorize(c, cmd)
	case CommandGroupLeave:
		h.groupLeave(c, cmd)
	case CommandGroupDelete:
		h.groupDelete(c, cmd)
	case CommandGroupList:
		h.send(c, &Event{Kind: EventGroupList, Names: h.groups.ListFor(c.Name)})
	case CommandGroupMembers:
		h.groupMembers(c, cmd)
	default:
		h.sendError(c, coreError(ErrCodeInvalidSyntax, "Invalid input. Please try again."))
	}
}

func (h *Hub) groupCreate(c *Client, cmd *Command) {
	g, enrolled, err := h.groups.Create(cmd.Group, c.Name, cmd.Names)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.log.Debug().Str("user", c.Name).Str("group", g.Name).Strs("members", enrolled).Msg("group created")

	h.send(c, &Event{Kind: EventGroupCreated, Group: g.Name, User: c.Name, Names: enrolled})
	for _, name := range enrolled {
		h.sendTo(name, &Event{Kind: EventGroupEnrolled, Group: g.Name, User: c.Name})
	}
}

func (h *Hub) groupSend(c *Client, cmd *Command) {
	recipients, err := h.groups.Recipients(cmd.Group, c.Name)
	if err != nil {
		h.sendError(c, err)
		return
	}
	msg := Message{From: c.Name, Group: cmd.Group, Text: cmd.Text, CreatedAt: time.Now()}
	for _, name := range recipients {
		h.sendTo(name, &Event{
			Kind:    EventGroupMessage,
			User:    c.Name,
			Group:   cmd.Group,
			Self:    name == c.Name,
			Message: msg,
		})
	}
}

func (h *Hub) groupAdd(c *Client, cmd *Command) {
	added, err := h.groups.Add(cmd.Group, c.Name, cmd.Names)
	if err != nil {
		h.sendError(c, err)
		return
	}

	for _, name := range added {
		h.sendTo(name, &Event{Kind: EventGroupEnrolled, Group: cmd.Group, User: c.Name})
	}
	h.send(c, &Event{Kind: EventGroupMembersAdded, Group: cmd.Group, Names: added})
	h.notifyRest(cmd.Group, append(slices.Clone(added), c.Name),
		&Event{Kind: EventGroupAddedNotice, Group: cmd.Group, User: c.Name, Names: added})
}

func (h *Hub) groupRemove(c *Client, cmd *Command) {
	res, err := h.groups.Remove(cmd.Group, c.Name, cmd.Names)
	if err != nil {
		h.sendError(c, err)
		return
	}

	for _, failure := range res.Failures {
		h.sendError(c, failure)
	}
	for _, name := range res.Removed {
		if name == c.Name {
			continue
		}
		h.sendTo(name, &Event{Kind: EventGroupRemoved, Group: cmd.Group, User: c.Name})
	}
	h.send(c, &Event{Kind: EventGroupMembersRemoved, Group: cmd.Group, Names: res.Removed})

	if res.Deleted || len(res.Removed) == 0 {
		return
	}
	h.notifyRest(cmd.Group, []string{c.Name},
		&Event{Kind: EventGroupRemovedNotice, Group: cmd.Group, User: c.Name, Names: res.Removed})
	if res.Promoted != "" {
		h.announcePromotion(cmd.Group, res.Promoted, "")
	}
}

func (h *Hub) groupAuthorize(c *Client, cmd *Command) {
	res, err := h.groups.Authorize(cmd.Group, c.Name, cmd.Names)
	if err != nil {
		h.sendError(c, err)
		return
	}

	for _, failure := range res.Failures {
		h.sendError(c, failure)
	}
	for _, name := range res.Promoted {
		h.sendTo(name, &Event{Kind: EventGroupPromoted, Group: cmd.Group, User: c.Name})
	}
	h.send(c, &Event{Kind: EventGroupAuthorized, Group: cmd.Group, Names: res.Promoted})
	if len(res.Promoted) == 0 {
		return
	}
	h.notifyRest(cmd.Group, append(slices.Clone(res.Promoted), c.Name),
		&Event{Kind: EventGroupPromotedNotice, Group: cmd.Group, User: c.Name, Names: res.Promoted})
}

func (h *Hub) groupLeave(c *Client, cmd *Command) {
	if cmd.Target != "" && cmd.Target != c.Name {
		h.sendError(c, coreError(ErrCodeUsernameMismatch, "Username does not match"))
		return
	}

	candidates, err := h.groups.SuccessorCandidates(cmd.Group, c.Name)
	if err != nil {
		h.sendError(c, err)
		return
	}
	if len(candidates) > 0 {
		h.ask(c, &prompt{kind: promptSuccessor, group: cmd.Group, candidates: candidates},
			fmt.Sprintf("You are the last admin of %s. Choose a successor (%s) or answer no:",
				cmd.Group, strings.Join(candidates, ", ")))
		return
	}
	h.leave(c, cmd.Group, "")
}

func (h *Hub) groupDelete(c *Client, cmd *Command) {
	if err := h.groups.CanDelete(cmd.Group, c.Name); err != nil {
		h.sendError(c, err)
		return
	}
	h.ask(c, &prompt{kind: promptDeleteGroup, group: cmd.Group},
		fmt.Sprintf("Do you want to delete the group '%s'? This action will remove all members. (yes/no):", cmd.Group))
}

func (h *Hub) groupMembers(c *Client, cmd *Command) {
	members, admins, err := h.groups.MembersOf(cmd.Group)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.send(c, &Event{Kind: EventGroupMembers, Group: cmd.Group, Admins: admins, Members: members})
}

// leave removes c from group. A non-empty successor names the member c
// picked to take over.
func (h *Hub) leave(c *Client, group, successor string) {
	res, err := h.groups.Leave(group, c.Name, successor)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.send(c, &Event{Kind: EventGroupLeft, Group: group})

	by := ""
	if successor != "" && res.Promoted == successor {
		by = c.Name
	}
	h.announceLeave(res, by)
}

func (h *Hub) deleteGroup(c *Client, group string) {
	participants, err := h.groups.Delete(group, c.Name)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.log.Debug().Str("user", c.Name).Str("group", group).Msg("group deleted")

	h.send(c, &Event{Kind: EventGroupDeleted, Group: group})
	h.sendToAll(participants, []string{c.Name}, &Event{Kind: EventGroupDisbanded, Group: group, User: c.Name})
}

// announceLeave tells the remaining participants that someone left and who
// took over, if anyone.
func (h *Hub) announceLeave(res *LeaveResult, by string) {
	if res.Deleted {
		return
	}
	h.notifyRest(res.Group, nil, &Event{Kind: EventGroupMemberLeft, Group: res.Group, User: res.User})
	if res.Promoted != "" {
		h.announcePromotion(res.Group, res.Promoted, by)
	}
}

// announcePromotion notifies the promotee distinctly from the rest. An empty
// by marks an automatic promotion.
func (h *Hub) announcePromotion(group, promoted, by string) {
	h.sendTo(promoted, &Event{Kind: EventGroupPromoted, Group: group, User: by})
	h.notifyRest(group, []string{promoted, by},
		&Event{Kind: EventGroupPromotedNotice, Group: group, User: by, Names: []string{promoted}})
}

// notifyRest delivers ev to the current participants of group except skip.
func (h *Hub) notifyRest(group string, skip []string, ev *Event) {
	g, err := h.groups.Get(group)
	if err != nil {
		return
	}
	h.sendToAll(g.Participants(), skip, ev)
}

func (h *Hub) ask(c *Client, p *prompt, question string) {
	c.prompt = p
	h.send(c, &Event{Kind: EventPrompt, Group: p.group, Text: question, Names: p.candidates})
	if h.promptTimeout > 0 {
		p.timer = time.AfterFunc(h.promptTimeout, func() {
			_ = h.post(context.Background(), promptExpiredRequest{client: c, prompt: p})
		})
	}
}

// resolvePrompt consumes answer for the pending prompt of c. An empty answer
// is what an expired prompt resolves with.
func (h *Hub) resolvePrompt(c *Client, answer string) {
	p := c.prompt
	c.prompt = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	answer = strings.TrimSpace(answer)

	switch p.kind {
	case promptDeleteGroup:
		switch strings.ToLower(answer) {
		case "yes":
			h.deleteGroup(c, p.group)
		case "no", "":
			h.notice(c, "Group deletion cancelled")
		default:
			h.notice(c, "Invalid response. Group deletion cancelled")
		}
	case promptSuccessor:
		choice := ""
		if answer != "" && !strings.EqualFold(answer, "no") {
			found, ok := lo.Find(p.candidates, func(name string) bool { return strings.EqualFold(name, answer) })
			if ok {
				choice = found
			} else {
				h.notice(c, fmt.Sprintf("'%s' is not a member of the %s group. The first member will be promoted.", answer, p.group))
			}
		}
		h.leave(c, p.group, choice)
	}
}
