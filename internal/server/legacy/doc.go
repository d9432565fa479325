// Package legacy holds the pure decision rules of the disclosure engine:
// owner inactivity, trustee notification and verification transitions,
// access grant evaluation and beneficiary conflict detection.
//
// Nothing here touches storage or the clock. Callers pass the current time
// explicitly and persist whatever the functions return.
package legacy
