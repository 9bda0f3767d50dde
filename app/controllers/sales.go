package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type SaleController struct {
	ledger *services.Ledger
}

func NewSaleController(ledger *services.Ledger) *SaleController {
	return &SaleController{ledger: ledger}
}

func (sc *SaleController) Store(c *ctx.Context) {
	var in services.SaleInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := sc.ledger.CreateSale(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(res)
}

func (sc *SaleController) Index(c *ctx.Context) {
	page, err := sc.ledger.ListSales(c.Context(), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}

// Credits handles GET /sales/credits.
func (sc *SaleController) Credits(c *ctx.Context) {
	page, err := sc.ledger.Credits(c.Context(), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}

func (sc *SaleController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	sale, err := sc.ledger.GetSale(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(sale)
}

func (sc *SaleController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var in services.SaleInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := sc.ledger.UpdateSale(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (sc *SaleController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if err := sc.ledger.DeleteSale(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Sale deleted successfully")
}
