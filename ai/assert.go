package ai

var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*GoogleProvider)(nil)
	_ Provider = (*MockClient)(nil)
	_ Client   = (*Registry)(nil)
)
