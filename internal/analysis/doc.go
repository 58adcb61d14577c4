// Package analysis implements the computational idioms shared by the
// catalog entries: period-over-period growth, top/bottom ranking,
// share-of-total, peak selection and two-level drill-down.
//
// Every function is pure and deterministic. Inputs are aggregated
// measures already fetched from the warehouse; outputs carry
// decimal.NullDecimal wherever a ratio can be undefined.
package analysis
