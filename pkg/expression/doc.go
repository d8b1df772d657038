// Package expression evaluates the restricted arithmetic sub-language
// used by the mathExpression action node. It intentionally implements its
// own tokenizer and recursive-descent parser instead of depending on a
// general-purpose expression library, because the safety contract here is
// that the evaluator can reach nothing outside the literal numbers in the
// string — no variable lookups, no function calls, no attribute access.
package expression
