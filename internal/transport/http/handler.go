// Package httptransport is the thin HTTP layer over the distribution
// service. Handlers decode, validate, delegate, and translate errors; no
// business logic lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"distrack/internal/advice"
	"distrack/internal/discrepancy"
	"distrack/internal/distribution"
	"distrack/internal/distribution/service"
	"distrack/internal/history"
	"distrack/internal/ledger"
	"distrack/internal/platform/middleware"
	"distrack/internal/transport/http/shared"
	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// Service is the distribution workflow surface the transport depends on.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*distribution.Distribution, error)
	AttachDocuments(ctx context.Context, distID id.DistributionID, docs []service.DocumentInput, actor id.UserID) (*distribution.Distribution, error)
	DetachDocument(ctx context.Context, distID id.DistributionID, doc service.DocumentInput, actor id.UserID) (*distribution.Distribution, error)
	RecordSenderVerification(ctx context.Context, distID id.DistributionID, items []service.VerificationInput, actor id.UserID) (ledger.Summary, error)
	RecordReceiverVerification(ctx context.Context, distID id.DistributionID, items []service.VerificationInput, actor id.UserID) (ledger.Summary, error)
	VerifySender(ctx context.Context, distID id.DistributionID, items []service.VerificationInput, actor id.UserID) (*distribution.Distribution, error)
	Send(ctx context.Context, distID id.DistributionID, actor id.UserID) (*distribution.Distribution, error)
	Receive(ctx context.Context, distID id.DistributionID, actor id.UserID) (*distribution.Distribution, error)
	VerifyReceiver(ctx context.Context, distID id.DistributionID, items []service.VerificationInput, actor id.UserID) (*distribution.Distribution, error)
	Complete(ctx context.Context, distID id.DistributionID, force bool, actor id.UserID) (*distribution.Distribution, error)
	Delete(ctx context.Context, distID id.DistributionID, actor id.UserID) error
	Get(ctx context.Context, distID id.DistributionID) (*distribution.Distribution, error)
	List(ctx context.Context, filter distribution.Filter) ([]*distribution.Distribution, error)
	GetEntries(ctx context.Context, distID id.DistributionID) ([]ledger.Entry, error)
	History(ctx context.Context, distID id.DistributionID) ([]history.Entry, error)
	Recompute(ctx context.Context, distID id.DistributionID) (discrepancy.Result, error)
	GenerateAdvice(ctx context.Context, distID id.DistributionID) (advice.Advice, error)
}

// Handler handles distribution endpoints.
type Handler struct {
	logger    *slog.Logger
	svc       Service
	validator middleware.TokenValidator
	validate  *validator.Validate
}

// New creates a distribution Handler.
func New(svc Service, logger *slog.Logger, tokenValidator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		svc:       svc,
		validator: tokenValidator,
		validate:  validator.New(),
	}
}

// Register registers the distribution routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	distRouter := chi.NewRouter()
	distRouter.Use(middleware.Recovery(h.logger))
	distRouter.Use(middleware.RequestID)
	distRouter.Use(middleware.Logger(h.logger))
	distRouter.Use(middleware.Timeout(30 * time.Second))
	distRouter.Use(middleware.ContentTypeJSON)
	distRouter.Use(middleware.RequireAuth(h.validator, h.logger))

	distRouter.Post("/distributions", h.handleCreate)
	distRouter.Get("/distributions", h.handleList)
	distRouter.Get("/distributions/{distributionID}", h.handleGet)
	distRouter.Delete("/distributions/{distributionID}", h.handleDelete)

	distRouter.Post("/distributions/{distributionID}/documents", h.handleAttach)
	distRouter.Post("/distributions/{distributionID}/documents/detach", h.handleDetach)

	distRouter.Post("/distributions/{distributionID}/verification/sender", h.handleRecordSender)
	distRouter.Post("/distributions/{distributionID}/verification/receiver", h.handleRecordReceiver)

	distRouter.Post("/distributions/{distributionID}/verify-sender", h.handleVerifySender)
	distRouter.Post("/distributions/{distributionID}/send", h.handleSend)
	distRouter.Post("/distributions/{distributionID}/receive", h.handleReceive)
	distRouter.Post("/distributions/{distributionID}/verify-receiver", h.handleVerifyReceiver)
	distRouter.Post("/distributions/{distributionID}/complete", h.handleComplete)

	distRouter.Get("/distributions/{distributionID}/entries", h.handleGetEntries)
	distRouter.Get("/distributions/{distributionID}/history", h.handleHistory)
	distRouter.Get("/distributions/{distributionID}/advice", h.handleAdvice)
	distRouter.Get("/distributions/{distributionID}/discrepancies", h.handleDiscrepancies)

	r.Mount("/", distRouter)
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request payload")
	}
	return nil
}

func (h *Handler) pathDistributionID(r *http.Request) (id.DistributionID, error) {
	return id.ParseDistributionID(chi.URLParam(r, "distributionID"))
}

// fail logs and writes an error response. Expected workflow rejections log at
// warn; everything else at error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createDistributionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.toInput(middleware.GetActor(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dist, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDistributionResponse(dist))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter distribution.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := distribution.Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("department"); raw != "" {
		deptID, err := id.ParseDepartmentID(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.Department = &deptID
	}
	dists, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := listResponse{Distributions: make([]distributionResponse, 0, len(dists))}
	for _, dist := range dists {
		resp.Distributions = append(resp.Distributions, toDistributionResponse(dist))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dist, err := h.svc.Get(r.Context(), distID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), distID, middleware.GetActor(r.Context()).UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttach(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req attachDocumentsRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	docs, err := toDocumentInputs(req.Documents)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dist, err := h.svc.AttachDocuments(r.Context(), distID, docs, middleware.GetActor(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleDetach(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req detachDocumentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := req.Document.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dist, err := h.svc.DetachDocument(r.Context(), distID, doc, middleware.GetActor(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleRecordSender(w http.ResponseWriter, r *http.Request) {
	h.handleRecordVerification(w, r, ledger.SideSender)
}

func (h *Handler) handleRecordReceiver(w http.ResponseWriter, r *http.Request) {
	h.handleRecordVerification(w, r, ledger.SideReceiver)
}

func (h *Handler) handleRecordVerification(w http.ResponseWriter, r *http.Request, side ledger.Side) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req recordVerificationRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := toVerificationInputs(req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	actor := middleware.GetActor(r.Context()).UserID
	var summary ledger.Summary
	if side == ledger.SideSender {
		summary, err = h.svc.RecordSenderVerification(r.Context(), distID, items, actor)
	} else {
		summary, err = h.svc.RecordReceiverVerification(r.Context(), distID, items, actor)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (h *Handler) handleVerifySender(w http.ResponseWriter, r *http.Request) {
	h.handleTransitionWithItems(w, r, h.svc.VerifySender)
}

func (h *Handler) handleVerifyReceiver(w http.ResponseWriter, r *http.Request) {
	h.handleTransitionWithItems(w, r, h.svc.VerifyReceiver)
}

func (h *Handler) handleTransitionWithItems(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, distID id.DistributionID, items []service.VerificationInput, actor id.UserID) (*distribution.Distribution, error),
) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// The inline batch is optional; an empty body means verify what is
	// already recorded.
	var items []service.VerificationInput
	if r.ContentLength > 0 {
		var req verifyRequest
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		items, err = toVerificationInputs(req.Items)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	dist, err := transition(r.Context(), distID, items, middleware.GetActor(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.svc.Send)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.svc.Receive)
}

func (h *Handler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, distID id.DistributionID, actor id.UserID) (*distribution.Distribution, error),
) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dist, err := transition(r.Context(), distID, middleware.GetActor(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req completeRequest
	if r.ContentLength > 0 {
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	dist, err := h.svc.Complete(r.Context(), distID, req.Force, middleware.GetActor(r.Context()).UserID)
	if err != nil {
		// A blocked completion tells the caller which documents are wrong.
		if dErrors.HasCode(err, dErrors.CodeDiscrepanciesUnresolved) {
			if result, recomputeErr := h.svc.Recompute(r.Context(), distID); recomputeErr == nil {
				shared.WriteErrorDetails(w, err, toDiscrepancyResponse(result))
				return
			}
		}
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (h *Handler) handleGetEntries(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.svc.GetEntries(r.Context(), distID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntriesResponse(entries))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.svc.History(r.Context(), distID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryResponse(entries))
}

func (h *Handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	adv, err := h.svc.GenerateAdvice(r.Context(), distID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, adv)
}

func (h *Handler) handleDiscrepancies(w http.ResponseWriter, r *http.Request) {
	distID, err := h.pathDistributionID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.Recompute(r.Context(), distID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDiscrepancyResponse(result))
}
