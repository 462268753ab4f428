package llm

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/pkg/chatmodel"
)

const (
	BackendEino = "eino"
	BackendSDK  = "sdk"
)

// Config is read with the LLM prefix: LLM_BACKEND, LLM_API_KEY, LLM_MODEL, ...
type Config struct {
	Backend string `envconfig:"BACKEND" default:"eino"`
	chatmodel.Config
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	switch c.backend() {
	case BackendEino, BackendSDK:
		return nil
	default:
		return fmt.Errorf("%w: unknown llm backend %q", contractx.ErrValidation, c.Backend)
	}
}

func (c Config) backend() string {
	b := strings.ToLower(strings.TrimSpace(c.Backend))
	if b == "" {
		return BackendEino
	}
	return b
}
