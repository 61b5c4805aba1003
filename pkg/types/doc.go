// Package types defines the record types shared by the gameshelf pipeline
// and the standard errors each stage reports.
//
// GameRecord and PlayRecord come from the catalog markup, CategoryRecord is
// the durable per-game category, and MergedRow is the joined output handed
// to reports.
package types
