package http

import (
	"net/http"

	"credential-approval/internal/adapter/middleware"
	"credential-approval/internal/domain/credential"
	ucApproval "credential-approval/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

type RequestHandler struct{ uc *ucApproval.Usecase }

func NewRequestHandler(uc *ucApproval.Usecase) *RequestHandler { return &RequestHandler{uc: uc} }

type createRequestReq struct {
	CertificateID string `json:"certificate_id" validate:"required,certid"`
	CourseID      string `json:"course_id"      validate:"required,scope"`
	Student       string `json:"student"        validate:"required,max=64"`
	Title         string `json:"title"          validate:"required,min=3,max=200"`
	Description   string `json:"description"    validate:"required,min=10,max=1000"`
	MetadataURI   string `json:"metadata_uri"   validate:"required,uri_scheme"`
	// unix seconds, 0 = never
	ExpiryDate int64  `json:"expiry_date" validate:"gte=0"`
	Reason     string `json:"reason"      validate:"max=500"`
}

type voteReq struct {
	Approved *bool   `json:"approved" validate:"required"`
	Comment  string  `json:"comment"  validate:"max=500"`
	Evidence *string `json:"evidence" validate:"omitempty,hex64"`
}

func requestID(c echo.Context) (string, bool) {
	id := c.Param("id")
	return id, reHex64.MatchString(id)
}

func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if code, resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(code, resp)
	}
	dto, err := h.uc.Create(c.Request().Context(), ucApproval.CreateInput{
		Requester: middleware.Actor(c),
		Reason:    req.Reason,
		Params: credential.MintParams{
			CertificateID: req.CertificateID,
			CourseID:      req.CourseID,
			Student:       req.Student,
			Title:         req.Title,
			Description:   req.Description,
			MetadataURI:   req.MetadataURI,
			ExpiryDate:    req.ExpiryDate,
		},
	})
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RequestHandler) Get(c echo.Context) error {
	id, ok := requestID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id path param"})
	}
	dto, err := h.uc.GetRequest(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RequestHandler) Vote(c echo.Context) error {
	id, ok := requestID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id path param"})
	}
	var req voteReq
	if code, resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(code, resp)
	}
	res, err := h.uc.Vote(c.Request().Context(), ucApproval.VoteInput{
		Actor:     middleware.Actor(c),
		RequestID: id,
		Approved:  *req.Approved,
		Comment:   req.Comment,
		Evidence:  req.Evidence,
	})
	if err != nil {
		status := ""
		if res != nil {
			status = string(res.Status)
		}
		return respondError(c, err, status)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *RequestHandler) Execute(c echo.Context) error {
	id, ok := requestID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id path param"})
	}
	dto, err := h.uc.Execute(c.Request().Context(), ucApproval.ExecuteInput{Actor: middleware.Actor(c), RequestID: id})
	if err != nil {
		status := ""
		if dto != nil {
			status = string(dto.Status)
		}
		return respondError(c, err, status)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RequestHandler) AuditTrail(c echo.Context) error {
	id, ok := requestID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id path param"})
	}
	trail, err := h.uc.GetAuditTrail(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusOK, trail)
}

func (h *RequestHandler) PendingFor(c echo.Context) error {
	actor := c.Param("actor")
	if !middleware.ValidActor(actor) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor path param"})
	}
	ids, err := h.uc.GetPendingFor(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(http.StatusOK, map[string]any{"actor": actor, "request_ids": ids})
}
