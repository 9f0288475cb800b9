// Package config defines the format-agnostic experiment model and the
// Loader interface that format-specific loaders (e.g. HCL) implement. The
// model is constructed once per experiment and threaded through function
// calls; nothing in it is mutated as ambient state after loading.
package config
