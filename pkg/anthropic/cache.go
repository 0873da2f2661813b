package anthropic

// BuildCachedSystemBlocks constructs a system block with a prompt-cache
// breakpoint. A persona chat resends the same persona and policy context on
// every turn, so the system prompt is cached for the conversation.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	return []SystemBlock{
		{
			Text:         text,
			CacheControl: &CacheControl{TTL: ttl},
		},
	}
}
