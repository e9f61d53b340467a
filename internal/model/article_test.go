package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticleStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, ArticleStatus("archived").Terminal())
}
