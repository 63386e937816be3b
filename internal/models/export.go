package models

// ExportOptions controls an export run.
type ExportOptions struct {
	// Types names the object types to export. At least one is required.
	Types     []string `json:"types"`
	Namespace string   `json:"namespace,omitempty"`
	// ExcludeDetails suppresses the trailing summary line of the stream.
	ExcludeDetails bool `json:"exclude_export_details,omitempty"`
}

// ExportDetails is the summary line appended to an export stream. It counts
// the exported objects and lists references that point outside the exported
// set, so the consumer knows up front which imports would need repair.
type ExportDetails struct {
	ExportedCount     int         `json:"exported_count"`
	MissingRefCount   int         `json:"missing_ref_count"`
	MissingReferences []ObjectKey `json:"missing_references"`
}
