package digestserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

type SettingsGetInput struct{}

type SettingsSetInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func registerSettings(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "settings_get",
		Description: "Read the persisted user preferences: summaryLength (short/medium/long), outputLanguage (auto/ja/en/es), autoSummarize, speechSpeed, voiceURI.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ SettingsGetInput) (*mcp.CallToolResult, *engine.Settings, error) {
		settings, err := engine.LoadSettings()
		if err != nil {
			return nil, nil, err
		}
		return nil, &settings, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "settings_set",
		Description: "Persist one user preference. Keys: summaryLength, outputLanguage, autoSummarize, speechSpeed, voiceURI. Values are stored as strings; booleans as true/false.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SettingsSetInput) (*mcp.CallToolResult, *engine.Settings, error) {
		if input.Key == "" {
			return nil, nil, errors.New("key is required")
		}
		if err := engine.SaveSetting(input.Key, input.Value); err != nil {
			return nil, nil, err
		}
		settings, err := engine.LoadSettings()
		if err != nil {
			return nil, nil, err
		}
		return nil, &settings, nil
	})
}
