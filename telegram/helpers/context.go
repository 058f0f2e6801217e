// Package helpers carries per-update state across Telebot handlers.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "__ctx"

// StoreContext attaches a request context to the Telebot context.
func StoreContext(c tele.Context, ctx context.Context) {
	c.Set(ctxKey, ctx)
}

// Ctx returns the request context stored by the logging middleware, or
// context.Background() when none was set.
func Ctx(c tele.Context) context.Context {
	if v := c.Get(ctxKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}
