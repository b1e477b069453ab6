package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTraitsBlock(t *testing.T) {
	assert.Empty(t, BuildTraitsBlock(nil))
	assert.Empty(t, BuildTraitsBlock([]string{"", "  "}))
	assert.Equal(t,
		"Character traits: Energetic, Playful",
		BuildTraitsBlock([]string{"Energetic", " Playful "}),
	)
}

func TestBuildCaptionsBlock(t *testing.T) {
	assert.Empty(t, BuildCaptionsBlock(nil))

	got := BuildCaptionsBlock([]string{"a red kite", "a sleepy cat"})
	assert.Contains(t, got, "CENTRAL elements")
	assert.Contains(t, got, "a red kite, a sleepy cat")
}

func TestBuildIdeaBlock(t *testing.T) {
	assert.Empty(t, BuildIdeaBlock("  "))

	got := BuildIdeaBlock("a journey to the moon")
	assert.Contains(t, got, "starting point")
	assert.Contains(t, got, "a journey to the moon")
}
