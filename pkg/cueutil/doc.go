// SPDX-License-Identifier: MPL-2.0

// Package cueutil checks inputs against embedded CUE schemas. The pubctl
// settings file and the pubpublica configuration document both go through
// it, so their errors read the same way:
//
//	var settingsSchema = cueutil.NewSchema(schemaBytes, "#Config")
//
//	checked, err := settingsSchema.Check(data, cueutil.Named(path), cueutil.AllowIncomplete())
//	if err != nil {
//		return err // "pubctl.cue: runtime: 3 errors in empty disjunction"
//	}
//	var m map[string]any
//	err = checked.Decode(&m)
package cueutil
