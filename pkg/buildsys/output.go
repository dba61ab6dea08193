package buildsys

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

// WithLogger attaches the given logger to the context. Parse and RunRecipe
// expect one to be present.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// log retrieves the context logger. Running recipes without log output is
// never intended, so a context built without WithLogger panics here.
func log(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(logKey{}).(*zerolog.Logger)
	if !ok {
		panic("Logger is missing in context!")
	}

	return logger
}

// recipeLog scopes the context logger to the given recipe. The console
// writer turns the recipe field into a line prefix.
func recipeLog(ctx context.Context, name string) zerolog.Logger {
	return log(ctx).With().Str("recipe", name).Logger()
}
