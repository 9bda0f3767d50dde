// Package controllers adapts HTTP requests to the services and shapes their
// results into response envelopes.
package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type UserController struct {
	users *services.Users
}

func NewUserController(users *services.Users) *UserController {
	return &UserController{users: users}
}

// Signup handles POST /users/signup.
func (uc *UserController) Signup(c *ctx.Context) {
	var in services.SignupInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := uc.users.Signup(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]any{"userId": id})
}

// Login handles POST /users/login.
func (uc *UserController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	session, err := uc.users.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(session)
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /users/refresh.
func (uc *UserController) Refresh(c *ctx.Context) {
	var in refreshInput
	if !c.BindJSON(&in) {
		return
	}
	access, err := uc.users.Refresh(c.Context(), in.RefreshToken)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"accessToken": access})
}

// Logout handles POST /users/logout.
func (uc *UserController) Logout(c *ctx.Context) {
	ident, ok := c.Identity()
	if !ok {
		c.Fail(apperror.Unauthorized("Unauthorized"))
		return
	}
	if err := uc.users.Logout(c.Context(), ident.ID); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Logged out")
}

// Me handles GET /users/me.
func (uc *UserController) Me(c *ctx.Context) {
	ident, ok := c.Identity()
	if !ok {
		c.Fail(apperror.Unauthorized("Unauthorized"))
		return
	}
	user, err := uc.users.Me(c.Context(), ident.ID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// Index handles GET /users.
func (uc *UserController) Index(c *ctx.Context) {
	page, err := uc.users.List(c.Context(), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}
