package authz

import (
	"testing"

	"newsdesk/internal/model"

	"github.com/stretchr/testify/assert"
)

func actor(id string, role model.Role) *model.Actor {
	return &model.Actor{ID: id, Role: role}
}

func TestAuthorize_StaticTable(t *testing.T) {
	reader := actor("r1", model.RoleReader)
	journalist := actor("j1", model.RoleJournalist)
	editor := actor("e1", model.RoleEditor)

	cases := []struct {
		name  string
		actor *model.Actor
		cap   Capability
		want  bool
	}{
		{"journalist submits", journalist, SubmitArticle, true},
		{"editor cannot submit", editor, SubmitArticle, false},
		{"reader cannot submit", reader, SubmitArticle, false},
		{"editor approves", editor, ApproveArticle, true},
		{"journalist cannot approve", journalist, ApproveArticle, false},
		{"reader cannot approve", reader, ApproveArticle, false},
		{"editor rejects", editor, RejectArticle, true},
		{"journalist cannot reject", journalist, RejectArticle, false},
		{"editor views queue", editor, ViewPendingQueue, true},
		{"journalist cannot view queue", journalist, ViewPendingQueue, false},
		{"journalist modifies", journalist, ModifyArticle, true},
		{"editor modifies", editor, ModifyArticle, true},
		{"reader cannot modify", reader, ModifyArticle, false},
		{"reader subscribes", reader, Subscribe, true},
		{"journalist cannot subscribe", journalist, Subscribe, false},
		{"editor cannot subscribe", editor, Subscribe, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.actor, tc.cap))
		})
	}
}

func TestAuthorize_UnknownActorIsDenied(t *testing.T) {
	assert.False(t, Authorize(nil, Subscribe))
	assert.False(t, Authorize(&model.Actor{ID: "x", Role: "Admin"}, ApproveArticle))
	assert.False(t, Authorize(&model.Actor{Role: model.RoleEditor}, ApproveArticle))
	assert.False(t, Authorize(actor("e1", model.RoleEditor), Capability(99)))
}

func TestCanModify(t *testing.T) {
	own := &model.Article{AuthorID: "j1", Status: model.StatusPending}
	approved := &model.Article{AuthorID: "j1", Status: model.StatusApproved}

	assert.True(t, CanModify(actor("j1", model.RoleJournalist), own))
	assert.False(t, CanModify(actor("j2", model.RoleJournalist), own))
	assert.False(t, CanModify(actor("j1", model.RoleJournalist), approved))
	assert.True(t, CanModify(actor("e1", model.RoleEditor), approved))
	assert.False(t, CanModify(actor("r1", model.RoleReader), own))
}

func TestCanView(t *testing.T) {
	pending := &model.Article{AuthorID: "j1", Status: model.StatusPending}
	rejected := &model.Article{AuthorID: "j1", Status: model.StatusRejected}
	approved := &model.Article{AuthorID: "j1", Status: model.StatusApproved}

	assert.True(t, CanView(actor("r1", model.RoleReader), approved))
	assert.False(t, CanView(actor("r1", model.RoleReader), pending))
	assert.False(t, CanView(actor("j2", model.RoleJournalist), pending))
	assert.True(t, CanView(actor("j1", model.RoleJournalist), pending))
	assert.True(t, CanView(actor("j1", model.RoleJournalist), rejected))
	assert.True(t, CanView(actor("e1", model.RoleEditor), rejected))
	assert.False(t, CanView(nil, pending))
}
