package http

import (
	"net/http"

	"credential-approval/internal/adapter/middleware"
	"credential-approval/internal/domain/credential"
	ucPolicy "credential-approval/internal/usecase/policy"

	"github.com/labstack/echo/v4"
)

type PolicyHandler struct{ uc *ucPolicy.Usecase }

func NewPolicyHandler(uc *ucPolicy.Usecase) *PolicyHandler { return &PolicyHandler{uc: uc} }

type putPolicyReq struct {
	RequiredApprovals uint32   `json:"required_approvals" validate:"required,gte=1"`
	Approvers         []string `json:"approvers"          validate:"required,min=1,max=100,dive,actor"`
	TimeoutSeconds    uint64   `json:"timeout_seconds"    validate:"required"`
	Priority          string   `json:"priority"           validate:"omitempty,oneof=standard premium enterprise institutional"`
	AutoExecute       bool     `json:"auto_execute"`
}

func (h *PolicyHandler) PutPolicy(c echo.Context) error {
	scope := c.Param("scope")
	if !credential.ValidCourseID(scope) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid scope path param"})
	}
	var req putPolicyReq
	if code, resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(code, resp)
	}
	dto, err := h.uc.SetPolicy(c.Request().Context(), ucPolicy.SetPolicyInput{
		Actor:             middleware.Actor(c),
		Scope:             scope,
		RequiredApprovals: req.RequiredApprovals,
		Approvers:         req.Approvers,
		TimeoutSeconds:    req.TimeoutSeconds,
		Priority:          req.Priority,
		AutoExecute:       req.AutoExecute,
	})
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PolicyHandler) GetPolicy(c echo.Context) error {
	scope := c.Param("scope")
	if !credential.ValidCourseID(scope) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid scope path param"})
	}
	dto, err := h.uc.GetPolicy(c.Request().Context(), scope)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusOK, dto)
}
