package logger

import "context"

type ctxKey struct{}

// Into returns a context carrying l. Background work uses it to make
// everything downstream log through a Quiet logger.
func Into(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger carried by ctx, or fallback when there is none.
func From(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return l
		}
	}
	return fallback
}
