package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// Error kinds raised by services. Match them with errors.Is; the HTTP layer
// reads the status from the DomainError itself.
var (
	ErrTicketNotFound    = apperrors.NewDomainError("TICKET_NOT_FOUND", "ticket not found", http.StatusNotFound, nil)
	ErrProfileNotFound   = apperrors.NewDomainError("PROFILE_NOT_FOUND", "profile not found", http.StatusNotFound, nil)
	ErrProductNotFound   = apperrors.NewDomainError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, nil)
	ErrExpertNotFound    = apperrors.NewDomainError("EXPERT_NOT_FOUND", "expert not found", http.StatusNotFound, nil)
	ErrExpertiseNotFound = apperrors.NewDomainError("EXPERTISE_NOT_FOUND", "expertise not found", http.StatusNotFound, nil)
	ErrMessageNotFound   = apperrors.NewDomainError("MESSAGE_NOT_FOUND", "message not found", http.StatusNotFound, nil)

	ErrIllegalStatusChange = apperrors.NewDomainError("ILLEGAL_STATUS_CHANGE", "illegal status change", http.StatusConflict, nil)
	ErrIllegalPriority     = apperrors.NewDomainError("ILLEGAL_PRIORITY", "priority not valid", http.StatusBadRequest, nil)

	ErrDuplicateProfile   = apperrors.NewDomainError("DUPLICATE_PROFILE", "profile exists", http.StatusConflict, nil)
	ErrDuplicateExpert    = apperrors.NewDomainError("DUPLICATE_EXPERT", "expert exists", http.StatusConflict, nil)
	ErrDuplicateExpertise = apperrors.NewDomainError("DUPLICATE_EXPERTISE", "expertise exists", http.StatusConflict, nil)

	ErrProfileEmailChangeNotAllowed = apperrors.NewDomainError("PROFILE_EMAIL_IMMUTABLE", "can't change profile email", http.StatusBadRequest, nil)
)
