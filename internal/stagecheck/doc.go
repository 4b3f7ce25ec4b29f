// Package stagecheck compares row counts of a fixed set of reporting tables
// between the staging and production databases before a promotion.
//
// A check opens one session per side, runs five count statements on each
// inside a read-only snapshot, and pairs the results by table. The outcome
// is True when any pair has equal counts (staging − production == 0) and
// False only when all five pairs differ.
package stagecheck
