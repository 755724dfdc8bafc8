// Package scoring holds the stateless arithmetic of the score engine: raw score
// validation, weighted aggregation, cohort statistics, tie-aware ranking and
// percentile achievement bands. Every function is pure and safe for concurrent use.
package scoring
