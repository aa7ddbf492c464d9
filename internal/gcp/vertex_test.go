package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaggerPrompt(t *testing.T) {
	prompt := TaggerPrompt([]string{"수열", "미분"}, "7. 수열 {a_n}에 대하여")

	assert.Contains(t, prompt, "- 수열\n- 미분\n\nRules:")
	assert.Contains(t, prompt, "Problem:\n7. 수열 {a_n}에 대하여")
}
