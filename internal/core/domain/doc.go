// Package domain holds the values galassia reasons about: questions and
// their dataset ids, the WorkflowState threaded through each run, the
// menu and dish metadata pulled out of a question, validated Judgments,
// retrieved Documents, and the sentinel errors every layer classifies by.
//
// It imports only the standard library. Everything else depends on it.
package domain
