package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type PriceController struct {
	prices *services.Prices
}

func NewPriceController(prices *services.Prices) *PriceController {
	return &PriceController{prices: prices}
}

func (pc *PriceController) Store(c *ctx.Context) {
	var in services.PriceInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := pc.prices.Add(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]any{"priceHistoryId": id})
}

// History handles GET /prices/{product_id}?from=&to=.
func (pc *PriceController) History(c *ctx.Context) {
	productID, ok := c.ParamID("product_id")
	if !ok {
		return
	}
	filter, err := services.ParsePriceFilter(c.Query("from"), c.Query("to"))
	if err != nil {
		c.Fail(err)
		return
	}
	page, err := pc.prices.History(c.Context(), productID, filter, c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}
