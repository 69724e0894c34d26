package dto

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"

	"nryli/internal/mailer"
	"nryli/internal/model"
)

const (
	InternalError        = "Internal server error"
	SaveFailed           = "Failed to save registration"
	LoadFailed           = "Failed to load registrations"
	StatsFailed          = "Failed to load registration stats"
	UpdateFailed         = "Error updating status"
	RegistrationNotFound = "Registration not found"
	InvalidJSON          = "Invalid JSON format"
	APIWorking           = "Registration API is working"
)

// RegisterRequest is the public form body. Field order is the order in which
// missing fields are reported.
type RegisterRequest struct {
	DelegateType       Text `json:"delegateType" validate:"required"`
	Surname            Text `json:"surname" validate:"required"`
	FirstName          Text `json:"firstName" validate:"required"`
	Institution        Text `json:"institution" validate:"required"`
	InstitutionAddress Text `json:"institutionAddress" validate:"required"`
	InstitutionContact Text `json:"institutionContact" validate:"required"`
	InstitutionEmail   Text `json:"institutionEmail" validate:"required"`
	RegionCluster      Text `json:"regionCluster" validate:"required,region"`
	DelegateContact    Text `json:"delegateContact" validate:"required"`
	DelegateEmail      Text `json:"delegateEmail" validate:"required"`
	Age                Text `json:"age" validate:"required"`
	TshirtSize         Text `json:"tshirtSize" validate:"required"`
	PaymentOption      Text `json:"paymentOption" validate:"required"`

	MiddleInitial      Text `json:"middleInitial"`
	DietaryPreferences Text `json:"dietaryPreferences"`
	DietaryComments    Text `json:"dietaryComments"`
	PaymentProofURL    Text `json:"paymentProofUrl"`
	TransactionRef     Text `json:"transactionRef"`
}

type RegisterResponse struct {
	Success        bool               `json:"success"`
	RegistrationID string             `json:"registrationId"`
	Data           model.Registration `json:"data"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type UpdateStatusResponse struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Refresh []string `json:"refresh"`
}

type RegistrationsResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Data    []model.Registration `json:"data"`
}

type NotifyResponse struct {
	RegistrationID string `json:"registrationId"`
	mailer.Result
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func BadResponseError(c *ginext.Context, desc string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: desc})
}

func NotFoundError(c *ginext.Context, desc string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: desc})
}

func InternalServerError(c *ginext.Context, desc string) {
	if desc == "" {
		desc = InternalError
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: desc})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// ConfirmationMessage asks the consumer worker to send one confirmation email.
// Registration carries the stored record so the worker need not read it back;
// when it is absent the worker loads the record by id.
type ConfirmationMessage struct {
	RegistrationID string              `json:"registration_id"`
	RequestedAt    time.Time           `json:"requested_at"`
	Registration   *model.Registration `json:"registration,omitempty"`
}
