// Package ctx gives handlers a single *Context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    id, ok := c.ParamID("id")
//	    if !ok {
//	        return
//	    }
//	    product, err := pc.products.Get(c.Context(), id)
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(product)
//	}
//
//	router.Get("/products/{id}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/bind"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
	"github.com/shashiranjanraj/stockbook/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamID parses a positive integer path parameter. On failure it writes a
// 400 and returns false.
func (c *Context) ParamID(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		c.Fail(apperror.Validation("invalid %s", key))
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Page reads ?page= and ?limit=.
func (c *Context) Page() pagination.Params {
	return pagination.FromRequest(c.R)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Identity returns the caller set by the auth guard.
func (c *Context) Identity() (middleware.Identity, bool) {
	return middleware.IdentityFromCtx(c.R.Context())
}

// BindJSON decodes and validates the body into dest. On failure it writes
// the 400 response and returns false.
//
//	var input SaleInput
//	if !c.BindJSON(&input) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	if err := bind.JSON(c.R, dest); err != nil {
		c.Fail(err)
		return false
	}
	return true
}

// Success sends a 200 envelope with data.
func (c *Context) Success(data any) { response.Success(c.W, data) }

// Created sends a 201 envelope with data.
func (c *Context) Created(data any) { response.Created(c.W, data) }

// Message sends a 200 envelope with only a message.
func (c *Context) Message(message string) { response.Message(c.W, message) }

// Error sends an error envelope.
func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }

// Fail maps err to its status and envelope. Internal errors are logged
// with the request logger and answered with a generic message.
func (c *Context) Fail(err error) {
	if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindValidation && len(appErr.Fields) > 0 {
		response.ValidationError(c.W, appErr.Fields)
		return
	}

	status := apperror.Status(err)
	if status >= http.StatusInternalServerError {
		logger.WithCtx(c.Context()).Error("request failed",
			"method", c.R.Method,
			"path", c.R.URL.Path,
			"error", err,
		)
	}
	response.Error(c.W, status, apperror.Message(err))
}
