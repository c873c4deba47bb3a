// Package naming derives TypeScript identifiers from context names.
//
// Context identifiers are free text written by authors ("user-profile",
// "userProfile", "HiveForm1"), so they are split into words first and then
// recased. Property keys that are not valid identifiers are quoted.
package naming
