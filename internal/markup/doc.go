// Package markup classifies JSX elements into the node kinds the form
// resolver acts on: containers, fields, references and everything else.
package markup
