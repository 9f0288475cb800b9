// Package hcl is the HCL implementation of the config.Loader interface.
// It parses experiment declaration files with hclparse, decodes them with
// gohcl into schema structs, and translates the result into the
// format-agnostic config.Experiment model.
package hcl
