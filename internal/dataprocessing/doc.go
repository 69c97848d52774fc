// Package dataprocessing implements the unification pipeline for safety
// and compliance source tables: column role sniffing over Arabic/English
// headers, value normalization, category detection, table merging, KPI
// computation, quality reporting and insight generation.
//
// Source tables arrive as untyped string grids (Excel sheets or CSV
// files). Column semantics are guessed by keyword matching, so every
// downstream step tolerates missing roles and malformed values rather
// than failing the run.
package dataprocessing
