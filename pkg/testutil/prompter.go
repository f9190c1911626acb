// pkg/testutil/prompter.go

package testutil

// ScriptedPrompter answers prompts from preloaded queues. When a queue
// runs dry the defaults passed by the caller are returned.
type ScriptedPrompter struct {
	Confirms []bool
	Inputs   []string

	// Asked records every prompt text in order.
	Asked []string
}

func (p *ScriptedPrompter) Confirm(prompt string, def bool) (bool, error) {
	p.Asked = append(p.Asked, prompt)
	if len(p.Confirms) == 0 {
		return def, nil
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *ScriptedPrompter) Input(prompt string, def string) (string, error) {
	p.Asked = append(p.Asked, prompt)
	if len(p.Inputs) == 0 {
		return def, nil
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	return answer, nil
}
