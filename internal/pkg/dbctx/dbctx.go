package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, inside a unit of work, the open
// transaction repositories should join.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Conn returns the handle a repository should query with: the caller's
// transaction when set, otherwise base. Either way it is bound to Ctx.
func (c Context) Conn(base *gorm.DB) *gorm.DB {
	handle := base
	if c.Tx != nil {
		handle = c.Tx
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return handle.WithContext(ctx)
}

// InTx joins the caller's transaction or opens a new one around fn.
func (c Context) InTx(base *gorm.DB, fn func(tx *gorm.DB) error) error {
	if c.Tx != nil {
		return fn(c.Conn(base))
	}
	return c.Conn(base).Transaction(fn)
}
