// Package discrepancy derives, from a distribution's verification entries,
// whether what was verified received matches what was verified sent.
package discrepancy

import (
	"distrack/internal/document"
	"distrack/internal/ledger"
)

// Result is the outcome of evaluating one distribution's ledger.
type Result struct {
	HasDiscrepancies bool
	Discrepant       []document.Ref
}

// Evaluate applies the per-document reconciliation rule:
//
//  1. receiver never verified while the distribution is past receiver
//     verification: discrepant (unverified on receipt)
//  2. receiver status != ok: discrepant regardless of sender status
//  3. sender status != receiver status: discrepant
//
// receiverDone tells the engine whether the distribution has passed receiver
// verification; before that point, unverified documents are simply pending,
// not discrepant. Evaluate is pure and safe to run concurrently with reads.
func Evaluate(entries []ledger.Entry, receiverDone bool) Result {
	var result Result
	for _, entry := range entries {
		if discrepant(entry, receiverDone) {
			result.Discrepant = append(result.Discrepant, entry.Ref)
		}
	}
	result.HasDiscrepancies = len(result.Discrepant) > 0
	return result
}

func discrepant(entry ledger.Entry, receiverDone bool) bool {
	if !entry.Receiver.Verified {
		return receiverDone
	}
	if entry.Receiver.Status != ledger.StatusOK {
		return true
	}
	return entry.Sender.Status != entry.Receiver.Status
}
