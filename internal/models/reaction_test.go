package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReactionKind(t *testing.T) {
	assert.Equal(t, ReactionDislike, ReactionLike.Opposite())
	assert.Equal(t, ReactionLike, ReactionDislike.Opposite())

	assert.True(t, ReactionLike.Valid())
	assert.True(t, ReactionDislike.Valid())
	assert.False(t, ReactionKind("love").Valid())
	assert.False(t, ReactionKind("").Valid())
}
