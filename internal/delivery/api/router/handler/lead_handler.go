package handler

import (
	"context"
	"net/http"

	"leadintake/internal/delivery/api/response"
	deliverycontext "leadintake/internal/delivery/context"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/errors"
	"leadintake/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type fileLeadRequest struct {
	FirstName string `form:"fname" validate:"required,max=64"`
	LastName  string `form:"lname" validate:"required,max=64"`
	Email     string `form:"email" validate:"required,email,max=256"`
}

type updateLeadRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	LeadID   string `json:"lead_id" validate:"required"`
}

type prospectResponse struct {
	ProspectID string `json:"prospect_id"`
	AttorneyID string `json:"attorney_id"`
	Email      string `json:"email"`
	LeadID     string `json:"lead_id"`
}

type leadInfoResponse struct {
	ProspectID string `json:"prospect_id"`
	AttorneyID string `json:"attorney_id"`
	LeadID     string `json:"lead_id"`
	State      string `json:"state"`
}

// LeadHandler serves lead intake and the listing endpoints.
type LeadHandler struct {
	leads usecase.LeadUsecase
	auth  usecase.AuthUsecase
}

func NewLeadHandler(leads usecase.LeadUsecase, auth usecase.AuthUsecase) *LeadHandler {
	return &LeadHandler{
		leads: leads,
		auth:  auth,
	}
}

// FileLead accepts a multipart resume upload and assigns the prospect to an attorney.
func (h *LeadHandler) FileLead(c echo.Context) error {
	var req fileLeadRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "expected multipart fields fname, lname, email and file")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BindingError(c, "file: required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	output, err := h.leads.FileLead(c.Request().Context(), &usecase.FileLeadInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Content:     file,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, prospectResponse{
		ProspectID: output.ProspectID.String(),
		AttorneyID: output.AttorneyID.String(),
		Email:      output.Email,
		LeadID:     output.LeadID.String(),
	})
}

// UpdateLead marks a lead reached out, authenticating with credentials in the body.
func (h *LeadHandler) UpdateLead(c echo.Context) error {
	var req updateLeadRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "expected a JSON body with email, password and lead_id")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	ctx := c.Request().Context()
	attorney, err := h.auth.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.markReachedOut(c, attorney.ID, req.LeadID)
}

// MarkReachedOut is the bearer-authenticated form of UpdateLead.
func (h *LeadHandler) MarkReachedOut(c echo.Context) error {
	attorneyID, ok := deliverycontext.GetAttorneyID(c)
	if !ok {
		return response.Unauthorized(c)
	}

	return h.markReachedOut(c, attorneyID, c.Param("id"))
}

func (h *LeadHandler) markReachedOut(c echo.Context, attorneyID uuid.UUID, rawLeadID string) error {
	leadID, err := uuid.Parse(rawLeadID)
	if err != nil {
		return errors.WithStack(domainerrors.ErrLeadNotFound)
	}

	info, err := h.leads.UpdateLead(c.Request().Context(), attorneyID, leadID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, leadInfoResponse{
		ProspectID: info.ProspectID.String(),
		AttorneyID: info.AttorneyID.String(),
		LeadID:     info.LeadID.String(),
		State:      string(info.State),
	})
}

func (h *LeadHandler) ListPendingLeads(c echo.Context) error {
	return listIDs(c, h.leads.ListPendingLeads)
}

func (h *LeadHandler) ListReachedLeads(c echo.Context) error {
	return listIDs(c, h.leads.ListReachedLeads)
}

func (h *LeadHandler) ListAttorneys(c echo.Context) error {
	return listIDs(c, h.leads.ListAttorneys)
}

func (h *LeadHandler) ListProspects(c echo.Context) error {
	return listIDs(c, h.leads.ListProspects)
}

func listIDs(c echo.Context, list func(ctx context.Context) ([]uuid.UUID, error)) error {
	ids, err := list(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	out := response.IDList{IDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		out.IDs = append(out.IDs, id.String())
	}

	return response.Success(c, http.StatusOK, out)
}
