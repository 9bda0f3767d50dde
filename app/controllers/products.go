package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type ProductController struct {
	products *services.Products
}

func NewProductController(products *services.Products) *ProductController {
	return &ProductController{products: products}
}

func (pc *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := pc.products.Create(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]any{"productId": id})
}

func (pc *ProductController) Index(c *ctx.Context) {
	page, err := pc.products.List(c.Context(), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}

func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	product, err := pc.products.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(product)
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	if err := pc.products.Update(c.Context(), id, in); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product updated successfully")
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if err := pc.products.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product deleted successfully")
}

// Movements handles GET /products/{id}/movements.
func (pc *ProductController) Movements(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	page, err := pc.products.Movements(c.Context(), id, c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}
