// Package webhook verifies payment provider deliveries, records each event
// exactly once and dispatches it to the fulfillment handlers.
package webhook

import (
	"context"
	"net/http"
	"strings"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
)

// Outcome is what a dispatcher reports back for the transaction record.
type Outcome struct {
	AssignedSongID string
}

// Dispatcher applies the side effects of an event. It runs inside a savepoint
// of the deduplication transaction; returning an error undoes everything it
// wrote through tx.
type Dispatcher interface {
	Dispatch(ctx context.Context, tx domain.Store, event Event) (Outcome, error)
}

// Result summarizes one delivery.
type Result struct {
	EventID   string                   `json:"event_id"`
	Kind      Kind                     `json:"kind"`
	Status    domain.TransactionStatus `json:"status"`
	Duplicate bool                     `json:"duplicate"`
}

// Processor runs verify, deduplicate and dispatch.
type Processor struct {
	store      domain.Store
	verifier   *Verifier
	dispatcher Dispatcher
	logger     infra.Logger
}

// NewProcessor wires a processor.
func NewProcessor(store domain.Store, verifier *Verifier, dispatcher Dispatcher, logger infra.Logger) *Processor {
	return &Processor{store: store, verifier: verifier, dispatcher: dispatcher, logger: logger}
}

// Process handles a delivery. Only signature and envelope failures are
// returned as errors; handler failures are recorded on the transaction and
// the delivery is still acknowledged.
func (p *Processor) Process(ctx context.Context, headers http.Header, body []byte) (*Result, error) {
	msgID, err := p.verifier.Verify(headers, body)
	if err != nil {
		p.logger.Warn().Err(err).Msg("webhook: verification failed")
		return nil, err
	}
	env, err := ParseEnvelope(body)
	if err != nil {
		return nil, err
	}

	eventID := strings.TrimSpace(env.ID)
	if eventID == "" {
		eventID = msgID
	}
	kind := Classify(env.Name())
	log := p.logger.With().Str("event_id", eventID).Str("event_type", env.Name()).Logger()

	txn := &domain.Transaction{
		ID:         eventID,
		EventType:  env.Name(),
		Status:     domain.TransactionStatusReceived,
		Amount:     int64(env.Data.Amount),
		Currency:   env.Data.Currency,
		CustomData: env.Data.CustomData,
		RawPayload: body,
	}

	var cd CustomData
	if kind != KindUnknown {
		parsed, cdErr := ParseCustomData(env.Data.CustomData, kind)
		if cdErr != nil {
			txn.Status = domain.TransactionStatusQuarantined
			txn.Error = cdErr.Error()
		} else {
			cd = parsed
			txn.SongID = cd.SongID
			txn.PurchaseID = cd.PurchaseID
		}
	}

	result := &Result{EventID: eventID, Kind: kind, Status: txn.Status}
	err = p.store.WithinTx(ctx, func(tx domain.Store) error {
		inserted, err := tx.Transactions().InsertIfAbsent(ctx, txn)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.DuplicateEventError(eventID)
		}
		if txn.Status == domain.TransactionStatusQuarantined {
			return nil
		}
		if kind == KindUnknown {
			result.Status = domain.TransactionStatusIgnored
			return tx.Transactions().Annotate(ctx, eventID, domain.TransactionAnnotation{Status: domain.TransactionStatusIgnored})
		}

		event := Event{ID: eventID, Kind: kind, Envelope: env, CustomData: cd, Transaction: txn}
		var outcome Outcome
		handlerErr := tx.WithinTx(ctx, func(sp domain.Store) error {
			var err error
			outcome, err = p.dispatcher.Dispatch(ctx, sp, event)
			return err
		})
		if handlerErr != nil {
			log.Error().Err(handlerErr).Msg("webhook: handler failed, side effects rolled back")
			result.Status = domain.TransactionStatusFailed
			return tx.Transactions().Annotate(ctx, eventID, domain.TransactionAnnotation{
				Status: domain.TransactionStatusFailed,
				Error:  handlerErr.Error(),
			})
		}
		result.Status = domain.TransactionStatusProcessed
		return tx.Transactions().Annotate(ctx, eventID, domain.TransactionAnnotation{
			Status:         domain.TransactionStatusProcessed,
			AssignedSongID: outcome.AssignedSongID,
		})
	})
	if domain.HasTextCode(err, domain.CodeDuplicateEvent) {
		log.Info().Msg("webhook: duplicate delivery acknowledged")
		result.Duplicate = true
		result.Status = ""
		return result, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("webhook: persist event failed")
		return nil, err
	}

	switch result.Status {
	case domain.TransactionStatusQuarantined:
		log.Warn().Str("reason", txn.Error).Msg("webhook: event quarantined")
	default:
		log.Info().Str("status", string(result.Status)).Str("kind", string(kind)).Msg("webhook: event recorded")
	}
	return result, nil
}
