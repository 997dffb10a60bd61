// Package gce implements the Guardrail Composability Explorer: a small
// analysis library that scores how well a composition of guardrails
// performs against its best singleton baseline.
//
// The central operation is ComputeVerdict, which takes a RunBundle
// (experiment settings plus measured J metrics) and produces a Verdict
// (a composability coefficient, a qualitative label, and deterministic
// follow-up guidance). Verdict computation is delegated to a pluggable
// backend: a local fallback implementation that always ships with this
// module, or the optional cc-framework service when it is reachable and
// preferred. See the backend subpackage for the selection policy.
//
// A Service is assembled with functional options:
//
//	svc, err := gce.New(
//	    gce.WithBackend(resolution.Backend),
//	    gce.WithRepository(memory.New()),
//	    gce.WithReportStore("memory", memorystore.New()),
//	)
//
// Subpackages provide threshold-scan metrics (metrics), run history
// repositories (repo/...), report rendering and stores (report,
// storage/...), HTTP handlers (api), and configuration loading (config).
package gce
