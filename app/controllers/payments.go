package controllers

import (
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
)

type PaymentController struct {
	payments *services.Payments
}

func NewPaymentController(payments *services.Payments) *PaymentController {
	return &PaymentController{payments: payments}
}

func (pc *PaymentController) Store(c *ctx.Context) {
	var in services.PaymentInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := pc.payments.Add(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(res)
}

// Index handles GET /payments/{sale_id}.
func (pc *PaymentController) Index(c *ctx.Context) {
	saleID, ok := c.ParamID("sale_id")
	if !ok {
		return
	}
	payments, err := pc.payments.List(c.Context(), saleID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(payments)
}

func (pc *PaymentController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	status, err := pc.payments.Delete(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"newPaymentStatus": status})
}
