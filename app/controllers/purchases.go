package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type PurchaseController struct {
	ledger *services.Ledger
}

func NewPurchaseController(ledger *services.Ledger) *PurchaseController {
	return &PurchaseController{ledger: ledger}
}

func (pc *PurchaseController) Store(c *ctx.Context) {
	var in services.PurchaseInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := pc.ledger.CreatePurchase(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]any{"purchaseId": id})
}

func (pc *PurchaseController) Index(c *ctx.Context) {
	page, err := pc.ledger.ListPurchases(c.Context(), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}

func (pc *PurchaseController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	purchase, err := pc.ledger.GetPurchase(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(purchase)
}

func (pc *PurchaseController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var in services.PurchaseInput
	if !c.BindJSON(&in) {
		return
	}
	if err := pc.ledger.UpdatePurchase(c.Context(), id, in); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Purchase updated successfully")
}

func (pc *PurchaseController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if err := pc.ledger.DeletePurchase(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Purchase deleted successfully")
}
