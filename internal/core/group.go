package core

import (
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// Directory resolves display names to their registered spelling.
// The Registry implements it.
type Directory interface {
	Canonical(name string) (string, bool)
}

// Group is a named collection of admins and members. The two sets are
// disjoint and a live group always has at least one participant.
// Entries are display names in insertion order.
type Group struct {
	Name    string
	admins  []string
	members []string
}

func newGroup(name, creator string) *Group {
	return &Group{Name: name, admins: []string{creator}}
}

// Admins returns a copy of the admin set.
func (g *Group) Admins() []string { return slices.Clone(g.admins) }

// Members returns a copy of the member set.
func (g *Group) Members() []string { return slices.Clone(g.members) }

// Participants returns admins followed by members.
func (g *Group) Participants() []string {
	return append(g.Admins(), g.members...)
}

// IsAdmin reports whether name holds the admin role.
func (g *Group) IsAdmin(name string) bool { return lo.Contains(g.admins, name) }

// IsMember reports whether name holds the plain member role.
func (g *Group) IsMember(name string) bool { return lo.Contains(g.members, name) }

// Has reports whether name participates in the group in any role.
func (g *Group) Has(name string) bool { return g.IsAdmin(name) || g.IsMember(name) }

// Empty reports whether both sets are empty.
func (g *Group) Empty() bool { return len(g.admins) == 0 && len(g.members) == 0 }

// find returns the stored spelling of name, ignoring case.
func (g *Group) find(name string) (string, bool) {
	return lo.Find(g.Participants(), func(item string) bool { return strings.EqualFold(item, name) })
}

func (g *Group) remove(name string) bool {
	switch {
	case g.IsAdmin(name):
		g.admins = lo.Without(g.admins, name)
	case g.IsMember(name):
		g.members = lo.Without(g.members, name)
	default:
		return false
	}
	return true
}

func (g *Group) promote(name string) bool {
	if !g.IsMember(name) {
		return false
	}
	g.members = lo.Without(g.members, name)
	g.admins = append(g.admins, name)
	return true
}

// settle restores the admin invariant after a participant was removed.
// When no admin is left, successor is promoted if it is a member, otherwise
// the first member is. It returns the promoted name, if any.
func (g *Group) settle(successor string) string {
	if len(g.admins) > 0 || len(g.members) == 0 {
		return ""
	}
	pick := g.members[0]
	if successor != "" && g.IsMember(successor) {
		pick = successor
	}
	g.promote(pick)
	return pick
}

// RemoveResult describes the outcome of a batch removal.
type RemoveResult struct {
	Removed  []string
	Failures []*CoreError
	Promoted string
	Deleted  bool
}

// AuthorizeResult describes the outcome of a batch promotion.
type AuthorizeResult struct {
	Promoted []string
	Failures []*CoreError
}

// LeaveResult describes the outcome of a participant leaving a group.
type LeaveResult struct {
	Group    string
	User     string
	Promoted string
	Deleted  bool
}

// GroupStore holds every live group. Like the Registry it is owned by the
// Hub goroutine and is not safe for concurrent use.
type GroupStore struct {
	groups map[string]*Group
	dir    Directory
}

// NewGroupStore returns an empty store resolving user names through dir.
func NewGroupStore(dir Directory) *GroupStore {
	return &GroupStore{
		groups: make(map[string]*Group),
		dir:    dir,
	}
}

// ValidateGroupName checks that name is a non-empty ASCII alphanumeric string.
func ValidateGroupName(name string) *CoreError {
	if err := validate.Var(name, "required,alphanum"); err != nil {
		return coreError(ErrCodeInvalidName, "Group name must contain only alphanumeric characters")
	}
	return nil
}

// Get returns the named group.
func (s *GroupStore) Get(name string) (*Group, *CoreError) {
	g, ok := s.groups[name]
	if !ok {
		return nil, coreError(ErrCodeNoSuchGroup, "Group does not exist")
	}
	return g, nil
}

// Create makes creator the sole admin of a new group and places every other
// initial name in the member set. All initial names must be registered.
// It returns the group and the canonical names that were enrolled.
func (s *GroupStore) Create(name, creator string, initial []string) (*Group, []string, *CoreError) {
	if err := ValidateGroupName(name); err != nil {
		return nil, nil, err
	}
	if _, exists := s.groups[name]; exists {
		return nil, nil, coreError(ErrCodeAlreadyExists, "Group name already exists")
	}

	enrolled := make([]string, 0, len(initial))
	for _, raw := range initial {
		canonical, ok := s.dir.Canonical(raw)
		if !ok {
			return nil, nil, coreErrorf(ErrCodeUnknownUser, "User '%s' does not exist", raw)
		}
		if canonical == creator {
			continue
		}
		enrolled = append(enrolled, canonical)
	}
	enrolled = lo.Uniq(enrolled)

	g := newGroup(name, creator)
	g.members = slices.Clone(enrolled)
	s.groups[name] = g
	return g, enrolled, nil
}

// Recipients authorizes sender to post to the group and returns every
// participant that should receive the message.
func (s *GroupStore) Recipients(name, sender string) ([]string, *CoreError) {
	g, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if !g.Has(sender) {
		return nil, coreError(ErrCodeNotAMember, "You are not a member of this group")
	}
	return g.Participants(), nil
}

// Add enrolls names as members. The operation is all-or-nothing: if any name
// already participates or is not registered nothing is changed.
func (s *GroupStore) Add(name, admin string, names []string) ([]string, *CoreError) {
	g, err := s.adminGroup(name, admin)
	if err != nil {
		return nil, err
	}

	var already, unknown, added []string
	for _, raw := range names {
		if existing, ok := g.find(raw); ok {
			already = append(already, existing)
			continue
		}
		canonical, ok := s.dir.Canonical(raw)
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		added = append(added, canonical)
	}
	if len(already) > 0 {
		return nil, coreErrorf(ErrCodeAlreadyMember, "%s already member(s) of this group", strings.Join(already, ", "))
	}
	if len(unknown) > 0 {
		return nil, coreErrorf(ErrCodeUnknownUser, "User(s) %s to add do(es) not exist", strings.Join(unknown, ", "))
	}

	added = lo.Uniq(added)
	g.members = append(g.members, added...)
	return added, nil
}

// Remove takes each name out of whichever set holds it. Names that do not
// participate are reported individually without aborting the batch.
func (s *GroupStore) Remove(name, admin string, names []string) (*RemoveResult, *CoreError) {
	g, err := s.adminGroup(name, admin)
	if err != nil {
		return nil, err
	}

	res := &RemoveResult{}
	for _, raw := range names {
		existing, ok := g.find(raw)
		if !ok {
			res.Failures = append(res.Failures,
				coreErrorf(ErrCodeNotAMember, "'%s' is not a member of the %s group.", raw, name))
			continue
		}
		g.remove(existing)
		res.Removed = append(res.Removed, existing)
	}

	if g.Empty() {
		delete(s.groups, name)
		res.Deleted = true
		return res, nil
	}
	res.Promoted = g.settle("")
	return res, nil
}

// Authorize promotes each named member to admin, reporting invalid targets
// individually.
func (s *GroupStore) Authorize(name, admin string, names []string) (*AuthorizeResult, *CoreError) {
	g, err := s.adminGroup(name, admin)
	if err != nil {
		return nil, err
	}

	res := &AuthorizeResult{}
	for _, raw := range names {
		existing, ok := g.find(raw)
		switch {
		case ok && g.IsAdmin(existing):
			res.Failures = append(res.Failures,
				coreErrorf(ErrCodeAlreadyAdmin, "'%s' is already an admin of the %s group.", existing, name))
		case ok:
			g.promote(existing)
			res.Promoted = append(res.Promoted, existing)
		default:
			if _, registered := s.dir.Canonical(raw); registered {
				res.Failures = append(res.Failures,
					coreErrorf(ErrCodeNotAMember, "'%s' is not a member of the %s group.", raw, name))
			} else {
				res.Failures = append(res.Failures,
					coreErrorf(ErrCodeUnknownUser, "User '%s' does not exist.", raw))
			}
		}
	}
	return res, nil
}

// SuccessorCandidates returns the members who could succeed who, when who is
// the last admin and more than one member would remain. Otherwise it returns
// nil and leaving needs no choice.
func (s *GroupStore) SuccessorCandidates(name, who string) ([]string, *CoreError) {
	g, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if !g.Has(who) {
		return nil, coreError(ErrCodeNotAMember, "You are not a member of this group")
	}
	if len(g.admins) == 1 && g.IsAdmin(who) && len(g.members) > 1 {
		return g.Members(), nil
	}
	return nil, nil
}

// Leave removes who from the group and applies the successor rules: an empty
// group is deleted, otherwise a group without admins gets exactly one.
func (s *GroupStore) Leave(name, who, successor string) (*LeaveResult, *CoreError) {
	g, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if !g.remove(who) {
		return nil, coreError(ErrCodeNotAMember, "You are not a member of this group")
	}

	res := &LeaveResult{Group: name, User: who}
	if g.Empty() {
		delete(s.groups, name)
		res.Deleted = true
		return res, nil
	}
	res.Promoted = g.settle(successor)
	return res, nil
}

// LeaveAll removes user from every group it participates in, in group name
// order, applying the automatic successor rules.
func (s *GroupStore) LeaveAll(user string) []*LeaveResult {
	var results []*LeaveResult
	for _, name := range s.Names() {
		if !s.groups[name].Has(user) {
			continue
		}
		if res, err := s.Leave(name, user, ""); err == nil {
			results = append(results, res)
		}
	}
	return results
}

// CanDelete checks that admin may delete the group.
func (s *GroupStore) CanDelete(name, admin string) *CoreError {
	_, err := s.adminGroup(name, admin)
	return err
}

// Delete erases the group and returns its former participants.
func (s *GroupStore) Delete(name, admin string) ([]string, *CoreError) {
	g, err := s.adminGroup(name, admin)
	if err != nil {
		return nil, err
	}
	delete(s.groups, name)
	return g.Participants(), nil
}

// ListFor returns the sorted names of the groups user participates in.
func (s *GroupStore) ListFor(user string) []string {
	return lo.Filter(s.Names(), func(name string, _ int) bool {
		return s.groups[name].Has(user)
	})
}

// MembersOf returns copies of the member and admin sets.
func (s *GroupStore) MembersOf(name string) ([]string, []string, *CoreError) {
	g, err := s.Get(name)
	if err != nil {
		return nil, nil, err
	}
	return g.Members(), g.Admins(), nil
}

// Names returns all group names, sorted.
func (s *GroupStore) Names() []string {
	names := lo.Keys(s.groups)
	sort.Strings(names)
	return names
}

// Len returns the number of live groups.
func (s *GroupStore) Len() int {
	return len(s.groups)
}

func (s *GroupStore) adminGroup(name, admin string) (*Group, *CoreError) {
	g, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if !g.IsAdmin(admin) {
		if g.IsMember(admin) {
			return nil, coreError(ErrCodeNotAuthorized, "Only group admins can do that")
		}
		return nil, coreError(ErrCodeNotAuthorized, "You are not an admin of this group")
	}
	return g, nil
}
