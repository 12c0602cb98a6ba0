// Package service owns the distribution state machine. Every operation is a
// pure function of (persisted state, input) executed inside one storage
// transaction: status change, ledger writes, and history append commit
// together or not at all.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"distrack/internal/advice"
	"distrack/internal/discrepancy"
	"distrack/internal/distribution"
	"distrack/internal/distribution/numbering"
	"distrack/internal/document"
	"distrack/internal/history"
	"distrack/internal/ledger"
	"distrack/internal/platform/metrics"
	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
	"distrack/pkg/platform/sentinel"
)

// Service orchestrates the distribution lifecycle.
type Service struct {
	store     distribution.Store
	types     distribution.TypeStore
	ledger    ledger.Store
	history   history.Store
	advices   advice.Store
	resolver  *document.Resolver
	directory Directory
	authz     Authorizer
	numbers   numbering.Allocator
	sink      history.Sink
	txn       TxRunner

	logger  *slog.Logger
	metrics *metrics.Metrics

	clock        func() time.Time
	periodFormat string
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPeriodFormat overrides the numbering period layout.
func WithPeriodFormat(format string) Option {
	return func(s *Service) { s.periodFormat = format }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Store     distribution.Store
	Types     distribution.TypeStore
	Ledger    ledger.Store
	History   history.Store
	Advices   advice.Store
	Resolver  *document.Resolver
	Directory Directory
	Authz     Authorizer
	Numbers   numbering.Allocator
	Sink      history.Sink
	Txn       TxRunner
	Logger    *slog.Logger
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		store:     deps.Store,
		types:     deps.Types,
		ledger:    deps.Ledger,
		history:   deps.History,
		advices:   deps.Advices,
		resolver:  deps.Resolver,
		directory: deps.Directory,
		authz:     deps.Authz,
		numbers:   deps.Numbers,
		sink:      deps.Sink,
		txn:       deps.Txn,
		logger:    deps.Logger,
		clock:     time.Now,
	}
	if s.sink == nil {
		s.sink = history.NopSink{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DocumentInput is a wire-level document reference.
type DocumentInput struct {
	Kind document.Kind
	ID   id.DocumentID
}

// CreateInput carries everything needed to open a draft distribution.
type CreateInput struct {
	TypeID        id.TypeID
	OriginID      id.DepartmentID
	DestinationID id.DepartmentID
	Documents     []DocumentInput
	Actor         id.UserID
}

// VerificationInput is one document's verification within a batch.
type VerificationInput struct {
	Kind   document.Kind
	ID     id.DocumentID
	Status ledger.Status
	Notes  string
}

// translateStoreErr converts infrastructure sentinels into domain errors.
func translateStoreErr(err error, subject string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, subject+" changed concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

// Create opens a draft distribution, allocates its number, and seeds ledger
// entries for any documents attached at creation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*distribution.Distribution, error) {
	if in.OriginID == in.DestinationID {
		return nil, dErrors.New(dErrors.CodeValidation, "origin and destination departments must differ")
	}
	for _, deptID := range []id.DepartmentID{in.OriginID, in.DestinationID} {
		exists, err := s.directory.Exists(ctx, deptID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check department")
		}
		if !exists {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "department %s does not exist", deptID)
		}
	}

	typ, err := s.types.FindByID(ctx, in.TypeID)
	if err != nil {
		return nil, translateStoreErr(err, "distribution type")
	}

	refs, err := s.resolveAll(ctx, in.Documents, nil)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	period := numbering.Period(now, s.periodFormat)
	seq, err := s.numbers.Next(ctx, typ.Code, period)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocate distribution number")
	}

	dist := &distribution.Distribution{
		ID:            id.NewDistributionID(),
		Number:        numbering.Format(typ.Code, seq, period),
		TypeID:        in.TypeID,
		OriginID:      in.OriginID,
		DestinationID: in.DestinationID,
		Status:        distribution.StatusDraft,
		CreatedBy:     in.Actor,
		Documents:     refs,
		CreatedAt:     now,
	}

	var pending []history.Entry
	err = s.runLocked(ctx, dist.ID, func(ctx context.Context) error {
		if err := s.store.Create(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		for pos, ref := range refs {
			if err := s.ledger.Ensure(ctx, dist.ID, ref, pos); err != nil {
				return translateStoreErr(err, "verification entry")
			}
		}
		entry := s.entry(dist.ID, history.ActionCreated, in.Actor, now,
			fmt.Sprintf("number %s, %d documents", dist.Number, len(refs)))
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionCreated))
	s.publish(ctx, pending)
	return dist, nil
}

// AttachDocuments adds documents to a draft distribution.
func (s *Service) AttachDocuments(ctx context.Context, distID id.DistributionID, docs []DocumentInput, actor id.UserID) (*distribution.Distribution, error) {
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no documents given")
	}

	var (
		dist    *distribution.Distribution
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.findDraft(ctx, distID)
		if err != nil {
			return err
		}

		refs, err := s.resolveAll(ctx, docs, dist.Documents)
		if err != nil {
			return err
		}

		base := len(dist.Documents)
		dist.Documents = append(dist.Documents, refs...)
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		for i, ref := range refs {
			if err := s.ledger.Ensure(ctx, distID, ref, base+i); err != nil {
				return translateStoreErr(err, "verification entry")
			}
		}
		entry := s.entry(distID, history.ActionDocumentsAttached, actor, s.clock(),
			fmt.Sprintf("%d documents", len(refs)))
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return dist, nil
}

// DetachDocument removes a document from a draft distribution and
// invalidates its ledger entry.
func (s *Service) DetachDocument(ctx context.Context, distID id.DistributionID, doc DocumentInput, actor id.UserID) (*distribution.Distribution, error) {
	ref := document.Ref{Kind: doc.Kind, ID: doc.ID}

	var (
		dist    *distribution.Distribution
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.findDraft(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.HasDocument(ref) {
			return dErrors.Newf(dErrors.CodeUnknownDocument, "%s is not attached", ref)
		}

		kept := dist.Documents[:0]
		for _, attached := range dist.Documents {
			if attached != ref {
				kept = append(kept, attached)
			}
		}
		dist.Documents = kept

		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		if err := s.ledger.Remove(ctx, distID, ref); err != nil {
			return translateStoreErr(err, "verification entry")
		}
		entry := s.entry(distID, history.ActionDocumentsDetached, actor, s.clock(), ref.String())
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return dist, nil
}

// RecordSenderVerification saves a partial or full sender-side verification
// batch while the distribution is still a draft.
func (s *Service) RecordSenderVerification(ctx context.Context, distID id.DistributionID, items []VerificationInput, actor id.UserID) (ledger.Summary, error) {
	return s.recordVerification(ctx, distID, ledger.SideSender, items, actor)
}

// RecordReceiverVerification saves a receiver-side batch while the
// distribution is in received state.
func (s *Service) RecordReceiverVerification(ctx context.Context, distID id.DistributionID, items []VerificationInput, actor id.UserID) (ledger.Summary, error) {
	return s.recordVerification(ctx, distID, ledger.SideReceiver, items, actor)
}

func (s *Service) recordVerification(ctx context.Context, distID id.DistributionID, side ledger.Side, items []VerificationInput, actor id.UserID) (ledger.Summary, error) {
	if len(items) == 0 {
		return ledger.Summary{}, dErrors.New(dErrors.CodeValidation, "no verification items given")
	}

	var (
		summary ledger.Summary
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		dist, err := s.find(ctx, distID)
		if err != nil {
			return err
		}
		if err := s.checkVerificationState(dist, side); err != nil {
			return err
		}
		if err := s.authorizeSide(ctx, dist, side, actor); err != nil {
			return err
		}

		batch, err := s.toLedgerItems(dist, items)
		if err != nil {
			return err
		}
		now := s.clock()
		if err := s.ledger.RecordSide(ctx, distID, side, batch, actor, now); err != nil {
			return translateStoreErr(err, "verification entry")
		}

		entries, err := s.ledger.ListByDistribution(ctx, distID)
		if err != nil {
			return translateStoreErr(err, "verification entries")
		}
		summary = ledger.Summarize(entries)

		action := history.ActionSenderVerificationRecorded
		if side == ledger.SideReceiver {
			action = history.ActionReceiverVerificationRecorded
		}
		entry := s.entry(distID, action, actor, now, fmt.Sprintf("%d documents", len(batch)))
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return ledger.Summary{}, err
	}

	s.metrics.IncVerificationBatch(string(side))
	s.publish(ctx, pending)
	return summary, nil
}

// VerifySender finishes sender verification and advances draft →
// verified_sender. Items, when present, are merged first; afterwards every
// attached document must carry a sender entry.
func (s *Service) VerifySender(ctx context.Context, distID id.DistributionID, items []VerificationInput, actor id.UserID) (*distribution.Distribution, error) {
	var (
		dist    *distribution.Distribution
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.find(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.Status.CanAdvanceTo(distribution.StatusVerifiedSender) {
			return s.invalidTransition(dist, distribution.StatusVerifiedSender)
		}
		if err := s.authorizeSide(ctx, dist, ledger.SideSender, actor); err != nil {
			return err
		}

		now := s.clock()
		if len(items) > 0 {
			batch, err := s.toLedgerItems(dist, items)
			if err != nil {
				return err
			}
			if err := s.ledger.RecordSide(ctx, distID, ledger.SideSender, batch, actor, now); err != nil {
				return translateStoreErr(err, "verification entry")
			}
		}

		entries, err := s.ledger.ListByDistribution(ctx, distID)
		if err != nil {
			return translateStoreErr(err, "verification entries")
		}
		if len(entries) == 0 {
			return dErrors.New(dErrors.CodeIncompleteVerification,
				"distribution has no documents to verify")
		}
		for _, entry := range entries {
			if !entry.Sender.Verified {
				return dErrors.Newf(dErrors.CodeIncompleteVerification,
					"document %s has no sender verification", entry.Ref)
			}
		}

		dist.Status = distribution.StatusVerifiedSender
		dist.SenderVerifiedAt = &now
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		entry := s.entry(distID, history.ActionSenderVerified, actor, now,
			fmt.Sprintf("%d documents", len(entries)))
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionSenderVerified))
	s.publish(ctx, pending)
	return dist, nil
}

// Send locks the document set, captures the transmittal advice snapshot, and
// advances verified_sender → sent.
func (s *Service) Send(ctx context.Context, distID id.DistributionID, actor id.UserID) (*distribution.Distribution, error) {
	var (
		dist    *distribution.Distribution
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.find(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.Status.CanAdvanceTo(distribution.StatusSent) {
			return s.invalidTransition(dist, distribution.StatusSent)
		}
		if err := s.authorizeSide(ctx, dist, ledger.SideSender, actor); err != nil {
			return err
		}

		typ, err := s.types.FindByID(ctx, dist.TypeID)
		if err != nil {
			return translateStoreErr(err, "distribution type")
		}
		entries, err := s.ledger.ListByDistribution(ctx, distID)
		if err != nil {
			return translateStoreErr(err, "verification entries")
		}

		now := s.clock()
		if err := s.advices.Save(ctx, advice.Build(dist, typ, entries, now)); err != nil {
			return translateStoreErr(err, "transmittal advice")
		}

		dist.Status = distribution.StatusSent
		dist.SentAt = &now
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		entry := s.entry(distID, history.ActionSent, actor, now, "advice "+dist.Number)
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionSent))
	s.publish(ctx, pending)
	return dist, nil
}

// Receive marks physical receipt at the destination, sent → received.
func (s *Service) Receive(ctx context.Context, distID id.DistributionID, actor id.UserID) (*distribution.Distribution, error) {
	var (
		dist    *distribution.Distribution
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.find(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.Status.CanAdvanceTo(distribution.StatusReceived) {
			return s.invalidTransition(dist, distribution.StatusReceived)
		}
		if err := s.authorizeSide(ctx, dist, ledger.SideReceiver, actor); err != nil {
			return err
		}

		now := s.clock()
		dist.Status = distribution.StatusReceived
		dist.ReceivedAt = &now
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}
		entry := s.entry(distID, history.ActionReceived, actor, now, "")
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionReceived))
	s.publish(ctx, pending)
	return dist, nil
}

// VerifyReceiver finishes receiver verification, runs the discrepancy
// engine, caches its result, and advances received → verified_receiver.
func (s *Service) VerifyReceiver(ctx context.Context, distID id.DistributionID, items []VerificationInput, actor id.UserID) (*distribution.Distribution, error) {
	var (
		dist    *distribution.Distribution
		result  discrepancy.Result
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.find(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.Status.CanAdvanceTo(distribution.StatusVerifiedReceiver) {
			return s.invalidTransition(dist, distribution.StatusVerifiedReceiver)
		}
		if err := s.authorizeSide(ctx, dist, ledger.SideReceiver, actor); err != nil {
			return err
		}

		now := s.clock()
		if len(items) > 0 {
			batch, err := s.toLedgerItems(dist, items)
			if err != nil {
				return err
			}
			if err := s.ledger.RecordSide(ctx, distID, ledger.SideReceiver, batch, actor, now); err != nil {
				return translateStoreErr(err, "verification entry")
			}
		}

		entries, err := s.ledger.ListByDistribution(ctx, distID)
		if err != nil {
			return translateStoreErr(err, "verification entries")
		}
		if len(entries) == 0 {
			return dErrors.New(dErrors.CodeIncompleteVerification,
				"distribution has no documents to verify")
		}
		for _, entry := range entries {
			if !entry.Receiver.Verified {
				return dErrors.Newf(dErrors.CodeIncompleteVerification,
					"document %s has no receiver verification", entry.Ref)
			}
		}

		result = discrepancy.Evaluate(entries, true)
		dist.Status = distribution.StatusVerifiedReceiver
		dist.HasDiscrepancies = result.HasDiscrepancies
		dist.ReceiverVerifiedAt = &now
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}

		detail := fmt.Sprintf("%d documents, %d discrepant", len(entries), len(result.Discrepant))
		entry := s.entry(distID, history.ActionReceiverVerified, actor, now, detail)
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionReceiverVerified))
	if result.HasDiscrepancies {
		s.metrics.IncDiscrepantBundle()
		s.logger.WarnContext(ctx, "distribution has discrepancies",
			"distribution_id", distID.String(),
			"discrepant", len(result.Discrepant),
		)
	}
	s.publish(ctx, pending)
	return dist, nil
}

// Complete finalizes verified_receiver → completed. With unresolved
// discrepancies the transition is blocked unless force is set by an elevated
// actor; a forced completion is annotated in the trail.
func (s *Service) Complete(ctx context.Context, distID id.DistributionID, force bool, actor id.UserID) (*distribution.Distribution, error) {
	var (
		dist    *distribution.Distribution
		forced  bool
		pending []history.Entry
	)
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		var err error
		dist, err = s.find(ctx, distID)
		if err != nil {
			return err
		}
		if !dist.Status.CanAdvanceTo(distribution.StatusCompleted) {
			return s.invalidTransition(dist, distribution.StatusCompleted)
		}

		if dist.HasDiscrepancies {
			if !force {
				return dErrors.New(dErrors.CodeDiscrepanciesUnresolved,
					"distribution has unresolved discrepancies")
			}
			elevated, err := s.authz.IsElevated(ctx, actor)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "check authorization")
			}
			if !elevated {
				return dErrors.New(dErrors.CodeForbidden,
					"forced completion requires an elevated role")
			}
			forced = true
		}

		now := s.clock()
		dist.Status = distribution.StatusCompleted
		dist.CompletedAt = &now
		if err := s.store.Update(ctx, dist); err != nil {
			return translateStoreErr(err, "distribution")
		}

		detail := ""
		if forced {
			detail = "forced"
		}
		entry := s.entry(distID, history.ActionCompleted, actor, now, detail)
		pending = append(pending, entry)
		return s.append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(history.ActionCompleted))
	if forced {
		s.metrics.IncForcedCompletion()
	}
	s.publish(ctx, pending)
	return dist, nil
}

// Delete hard-removes a draft distribution. The trail is copied to the audit
// sink before anything is destroyed.
func (s *Service) Delete(ctx context.Context, distID id.DistributionID, actor id.UserID) error {
	err := s.runLocked(ctx, distID, func(ctx context.Context) error {
		dist, err := s.findDraft(ctx, distID)
		if err != nil {
			return err
		}

		now := s.clock()
		deleted := s.entry(distID, history.ActionDeleted, actor, now, "number "+dist.Number)

		// Sink copy happens before removal so the trail survives the hard
		// delete even if the transaction aborts afterwards.
		trail, err := s.history.List(ctx, distID)
		if err != nil {
			return translateStoreErr(err, "history")
		}
		for _, entry := range append(trail, deleted) {
			if err := s.sink.Publish(ctx, entry); err != nil {
				s.logger.WarnContext(ctx, "audit sink copy failed",
					"distribution_id", distID.String(),
					"action", string(entry.Action),
					"error", err.Error(),
				)
			}
		}

		if err := s.ledger.RemoveByDistribution(ctx, distID); err != nil {
			return translateStoreErr(err, "verification entries")
		}
		if err := s.history.Purge(ctx, distID); err != nil {
			return translateStoreErr(err, "history")
		}
		if err := s.store.Delete(ctx, distID); err != nil {
			return translateStoreErr(err, "distribution")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncTransition(string(history.ActionDeleted))
	return nil
}

// Get returns the distribution projection.
func (s *Service) Get(ctx context.Context, distID id.DistributionID) (*distribution.Distribution, error) {
	return s.find(ctx, distID)
}

// List returns distributions matching the filter.
func (s *Service) List(ctx context.Context, filter distribution.Filter) ([]*distribution.Distribution, error) {
	dists, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, translateStoreErr(err, "distributions")
	}
	return dists, nil
}

// GetEntries returns the ledger, ordered by attach order.
func (s *Service) GetEntries(ctx context.Context, distID id.DistributionID) ([]ledger.Entry, error) {
	if _, err := s.find(ctx, distID); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByDistribution(ctx, distID)
	if err != nil {
		return nil, translateStoreErr(err, "verification entries")
	}
	return entries, nil
}

// History returns the trail, ordered by time.
func (s *Service) History(ctx context.Context, distID id.DistributionID) ([]history.Entry, error) {
	if _, err := s.find(ctx, distID); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, distID)
	if err != nil {
		return nil, translateStoreErr(err, "history")
	}
	return entries, nil
}

// Recompute re-derives the discrepancy result from the ledger without
// touching the cached flag. Idempotent; safe for auditing and repair.
func (s *Service) Recompute(ctx context.Context, distID id.DistributionID) (discrepancy.Result, error) {
	dist, err := s.find(ctx, distID)
	if err != nil {
		return discrepancy.Result{}, err
	}
	entries, err := s.ledger.ListByDistribution(ctx, distID)
	if err != nil {
		return discrepancy.Result{}, translateStoreErr(err, "verification entries")
	}
	receiverDone := dist.ReceiverVerifiedAt != nil
	return discrepancy.Evaluate(entries, receiverDone), nil
}

// GenerateAdvice returns the send-time snapshot. Before send there is
// nothing to return.
func (s *Service) GenerateAdvice(ctx context.Context, distID id.DistributionID) (advice.Advice, error) {
	adv, err := s.advices.FindByDistribution(ctx, distID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return advice.Advice{}, dErrors.New(dErrors.CodeNotFound,
				"no transmittal advice generated yet")
		}
		return advice.Advice{}, translateStoreErr(err, "transmittal advice")
	}
	return adv, nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (s *Service) runLocked(ctx context.Context, distID id.DistributionID, fn func(ctx context.Context) error) error {
	return s.txn.RunInTx(withLockScope(ctx, distID.String()), fn)
}

func (s *Service) find(ctx context.Context, distID id.DistributionID) (*distribution.Distribution, error) {
	dist, err := s.store.FindByID(ctx, distID)
	if err != nil {
		return nil, translateStoreErr(err, "distribution")
	}
	return dist, nil
}

func (s *Service) findDraft(ctx context.Context, distID id.DistributionID) (*distribution.Distribution, error) {
	dist, err := s.find(ctx, distID)
	if err != nil {
		return nil, err
	}
	if dist.Status != distribution.StatusDraft {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"distribution is %s, operation requires draft", dist.Status)
	}
	return dist, nil
}

func (s *Service) invalidTransition(dist *distribution.Distribution, target distribution.Status) error {
	return dErrors.Newf(dErrors.CodeInvalidTransition,
		"cannot move %s distribution to %s", dist.Status, target)
}

// checkVerificationState enforces which lifecycle window each ledger side may
// be written in: sender while draft, receiver while received.
func (s *Service) checkVerificationState(dist *distribution.Distribution, side ledger.Side) error {
	switch side {
	case ledger.SideSender:
		if dist.Status != distribution.StatusDraft {
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"sender verification requires draft, distribution is %s", dist.Status)
		}
	case ledger.SideReceiver:
		if dist.Status != distribution.StatusReceived {
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"receiver verification requires received, distribution is %s", dist.Status)
		}
	}
	return nil
}

// authorizeSide checks department affiliation: origin for sender-side calls,
// destination for receiver-side.
func (s *Service) authorizeSide(ctx context.Context, dist *distribution.Distribution, side ledger.Side, actor id.UserID) error {
	dept, err := s.authz.DepartmentOf(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check authorization")
	}
	required := dist.OriginID
	if side == ledger.SideReceiver {
		required = dist.DestinationID
	}
	if dept != required {
		return dErrors.Newf(dErrors.CodeForbidden,
			"actor does not belong to the %s department", side)
	}
	return nil
}

// toLedgerItems validates that every input references an attached document.
func (s *Service) toLedgerItems(dist *distribution.Distribution, items []VerificationInput) ([]ledger.Item, error) {
	batch := make([]ledger.Item, 0, len(items))
	for _, item := range items {
		if _, err := ledger.ParseStatus(string(item.Status)); err != nil {
			return nil, err
		}
		ref := document.Ref{Kind: item.Kind, ID: item.ID}
		if !dist.HasDocument(ref) {
			return nil, dErrors.Newf(dErrors.CodeUnknownDocument, "%s is not attached", ref)
		}
		batch = append(batch, ledger.Item{Ref: ref, Status: item.Status, Notes: item.Notes})
	}
	return batch, nil
}

// resolveAll resolves inputs and rejects duplicates, both within the batch
// and against already attached documents.
func (s *Service) resolveAll(ctx context.Context, docs []DocumentInput, attached []document.Ref) ([]document.Ref, error) {
	seen := make(map[document.Ref]bool, len(attached)+len(docs))
	for _, ref := range attached {
		seen[ref] = true
	}
	refs := make([]document.Ref, 0, len(docs))
	for _, doc := range docs {
		ref, err := s.resolver.Resolve(ctx, doc.Kind, doc.ID)
		if err != nil {
			return nil, err
		}
		if seen[ref] {
			return nil, dErrors.Newf(dErrors.CodeDuplicateDocument, "%s is already attached", ref)
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Service) entry(distID id.DistributionID, action history.Action, actor id.UserID, at time.Time, detail string) history.Entry {
	return history.Entry{
		DistributionID: distID,
		Action:         action,
		ActorID:        actor,
		OccurredAt:     at,
		Detail:         detail,
	}
}

func (s *Service) append(ctx context.Context, entry history.Entry) error {
	if err := s.history.Append(ctx, entry); err != nil {
		return translateStoreErr(err, "history")
	}
	return nil
}

// publish copies committed entries to the notification sink. Best-effort:
// failures are logged, never surfaced, and never roll anything back.
func (s *Service) publish(ctx context.Context, entries []history.Entry) {
	for _, entry := range entries {
		if err := s.sink.Publish(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "history sink publish failed",
				"distribution_id", entry.DistributionID.String(),
				"action", string(entry.Action),
				"error", err.Error(),
			)
		}
	}
}
