// Package status holds the status values shared by group documents.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)
