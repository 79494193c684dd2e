package http

import (
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ListOrdersParams are the query parameters of GET /api/v1/orders.
type ListOrdersParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset *int    `form:"offset,omitempty" json:"offset,omitempty"`
}

func bindListOrdersParams(ctx echo.Context) (ListOrdersParams, error) {
	var params ListOrdersParams
	if err := runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status); err != nil {
		return ListOrdersParams{}, errs.NewValueIsInvalidErrorWithCause("status", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return ListOrdersParams{}, errs.NewValueIsInvalidErrorWithCause("limit", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", ctx.QueryParams(), &params.Offset); err != nil {
		return ListOrdersParams{}, errs.NewValueIsInvalidErrorWithCause("offset", err)
	}
	return params, nil
}

func bindUUIDParam(ctx echo.Context, name string) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return fromOpenAPIUUID(id)
}

func bindLineParams(ctx echo.Context) (kernel.UUID, kernel.UUID, error) {
	orderID, err := bindUUIDParam(ctx, "orderId")
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	lineID, err := bindUUIDParam(ctx, "lineId")
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return orderID, lineID, nil
}
