package logging

import "context"

type contextKey string

const (
	memberTagKey  contextKey = "member_tag"
	generationKey contextKey = "generation"
)

// WithMemberTag annotates the context with the population member tag that
// subsequent log records belong to.
func WithMemberTag(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, memberTagKey, tag)
}

// GetMemberTag extracts a member tag previously set with WithMemberTag.
func GetMemberTag(ctx context.Context) (string, bool) {
	tag, ok := ctx.Value(memberTagKey).(string)
	return tag, ok
}

// WithGeneration annotates the context with the current generation ordinal.
func WithGeneration(ctx context.Context, generation int) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// GetGeneration extracts a generation ordinal previously set with
// WithGeneration.
func GetGeneration(ctx context.Context) (int, bool) {
	g, ok := ctx.Value(generationKey).(int)
	return g, ok
}
