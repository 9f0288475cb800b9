// Package runtable implements the combinatorial run design of an experiment.
//
// A run table is built once per experiment from the declared factors: the
// full cross product of all factor levels forms one repetition block, which
// is replicated by the repetition count and optionally shuffled. The table
// then accumulates one record per successfully measured run and is finally
// persisted as a flat CSV file, one row per record, with factor columns
// followed by data columns.
package runtable
