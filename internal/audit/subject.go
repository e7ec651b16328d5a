package audit

import "context"

type ctxKey struct{}

// WithSubject кладёт в контекст идентификатор того, кто выполняет действие.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKey{}, subject)
}

// SubjectFrom: субъект из контекста или пустая строка.
func SubjectFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
