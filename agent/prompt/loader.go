package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/travelai/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/exhausted.txt
	exhaustedRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	// System is prepended to every reasoning call and never stored.
	System string
	// Exhausted is delivered when the iteration cap ends a turn without text.
	Exhausted string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:    strings.TrimSpace(systemRaw),
		Exhausted: strings.TrimSpace(exhaustedRaw),
	}
}

func (p PromptSet) Validate() error {
	if p.System == "" {
		return fmt.Errorf("%w: system", contractx.ErrPromptMissing)
	}
	if p.Exhausted == "" {
		return fmt.Errorf("%w: exhausted", contractx.ErrPromptMissing)
	}
	return nil
}
