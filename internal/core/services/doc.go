// Package services is the application core behind the driving ports.
//
// WorkflowEngine answers one question by walking a bounded state machine:
// route, extract metadata, build queries, retrieve, grade relevance,
// enrich, generate and grade the answer, regenerating until the answer
// passes or the limit is hit. Every model call is made through
// StructuredJudge, which validates and caches the reply. BatchRunner fans
// questions out to the engine, and Importer fills the stores.
package services
