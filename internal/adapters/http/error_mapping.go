package httpadapter

import (
	"net/http"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError echoes validation and not-found details to the caller;
// collaborator failures get a fixed message so backend hosts, models and
// upstream response bodies never reach the client.
func writeDomainError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	switch {
	case status == http.StatusServiceUnavailable:
		writeError(w, status, "service temporarily unavailable")
	case status >= http.StatusInternalServerError:
		writeError(w, status, "internal error")
	default:
		writeError(w, status, err.Error())
	}
}
