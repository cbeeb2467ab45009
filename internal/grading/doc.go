// Package grading holds the exam-grading domain model: answers, exams,
// per-stage answer keys, and the pure scoring function that turns an exam
// plus a key into a result. Nothing in this package touches the network or
// the task pool. The worker's bus-driven batch scoring uses it; the
// worker's TCP [check] handler grades against its own flat answer map and
// does not use this package.
package grading
