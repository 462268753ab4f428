package llm

import "github.com/tanpawarit/travelai/pkg/chatmodel"

func chatmodelConfig(model string, tokens *int) chatmodel.Config {
	return chatmodel.Config{APIKey: "test-key", Model: model, MaxCompletionToken: tokens}
}
