// Package activity persists authorization decisions. The Repository
// implements both the DecisionSink (writes) and the DecisionRepository
// read-side contract so every terminal decision can later be audited. Draft
// payloads are masked before they are stored.
package activity
