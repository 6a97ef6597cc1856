package testutil

import "sync"

// ScriptedConfirmer answers confirmation prompts from a fixed script.
// When the script runs out it answers with Default.
//
// Thread-safety: ScriptedConfirmer is safe for concurrent use via internal mutex.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	prompts []string

	// Default is returned once the scripted answers are exhausted.
	Default bool
}

// NewScriptedConfirmer returns a confirmer that replies with answers in order.
func NewScriptedConfirmer(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

// Confirm implements core.Confirmer.
func (c *ScriptedConfirmer) Confirm(prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return c.Default
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer
}

// Push appends answers to the script.
func (c *ScriptedConfirmer) Push(answers ...bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers = append(c.answers, answers...)
}

// Prompts returns every prompt asked so far.
func (c *ScriptedConfirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
