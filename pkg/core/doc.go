// Package core defines the shared language of the formula toolkit.
//
// This package contains:
//   - The result type lattice (ResultType, Assignable, CommonType)
//   - The expression tree (Node)
//   - Diagnostics and their taxonomy (Diagnostic, DiagnosticKind)
//   - The query context a formula is checked against (Column, FeatureSet,
//     ExpressionMode, QueryContext)
//   - Message keys and the Localizer contract
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
