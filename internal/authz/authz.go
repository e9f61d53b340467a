// Package authz decides what an actor may do based on its single role.
//
// The capability table is static. Adding a capability means adding a constant
// and a row below; there is no runtime lookup of groups or permissions.
package authz

import "newsdesk/internal/model"

type Capability int

const (
	SubmitArticle Capability = iota
	ApproveArticle
	RejectArticle
	ModifyArticle
	ViewPendingQueue
	Subscribe
)

var capabilityNames = map[Capability]string{
	SubmitArticle:    "submit_article",
	ApproveArticle:   "approve_article",
	RejectArticle:    "reject_article",
	ModifyArticle:    "modify_article",
	ViewPendingQueue: "view_pending_queue",
	Subscribe:        "subscribe",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return "unknown"
}

var table = map[Capability][]model.Role{
	SubmitArticle:    {model.RoleJournalist},
	ApproveArticle:   {model.RoleEditor},
	RejectArticle:    {model.RoleEditor},
	ModifyArticle:    {model.RoleJournalist, model.RoleEditor},
	ViewPendingQueue: {model.RoleEditor},
	Subscribe:        {model.RoleReader},
}

// RoleOf returns the actor's role. ok is false for a nil actor or a role
// outside the known set.
func RoleOf(actor *model.Actor) (model.Role, bool) {
	if actor == nil || actor.ID == "" || !actor.Role.Valid() {
		return "", false
	}
	return actor.Role, true
}

// Authorize reports whether actor holds capability c. It never fails; unknown
// actors and unknown capabilities are simply denied.
func Authorize(actor *model.Actor, c Capability) bool {
	role, ok := RoleOf(actor)
	if !ok {
		return false
	}
	for _, r := range table[c] {
		if r == role {
			return true
		}
	}
	return false
}

// CanModify applies the object-level half of ModifyArticle: editors may change
// any article, journalists only their own and only while it awaits a decision.
func CanModify(actor *model.Actor, article *model.Article) bool {
	if article == nil || !Authorize(actor, ModifyArticle) {
		return false
	}
	if actor.Role == model.RoleEditor {
		return true
	}
	return article.AuthorID == actor.ID && article.Status == model.StatusPending
}

// CanView is the single visibility rule every read path goes through:
// approved articles are public, anything else only to its author and editors.
func CanView(actor *model.Actor, article *model.Article) bool {
	if article == nil {
		return false
	}
	if article.Status == model.StatusApproved {
		return true
	}
	role, ok := RoleOf(actor)
	if !ok {
		return false
	}
	return role == model.RoleEditor || article.AuthorID == actor.ID
}
