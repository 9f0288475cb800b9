// Package lifecycle provides the stage registry that drives an experiment.
//
// The set of stages is fixed and closed: two experiment-scoped stages
// (BeforeExperiment, AfterExperiment), six run-scoped stages published in a
// strict order for every run, and a data-population stage that closes each
// run. Handlers are registered against a stage
// and invoked synchronously in registration order. Handler signatures form
// a tagged union of three stage kinds, checked at registration time, so a
// handler can never be invoked with arguments it does not expect.
//
// The registry never swallows a handler error; failure isolation is the
// orchestrator's responsibility. There is deliberately no package-level
// registry: one Registry value is constructed at startup and passed by
// reference to whoever publishes.
package lifecycle
