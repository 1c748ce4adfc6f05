// Lectern validates tabular data submissions against versioned data
// dictionaries.
//
// It provides:
//   - Reference resolution for dictionary documents
//   - Type conversion and restriction validation of TSV submissions
//   - Persistent validation reports with retention
//   - A watch mode that reloads dictionaries as they change
//
// Usage:
//
//	# Resolve the references of a dictionary
//	lectern resolve --file dictionary.json
//
//	# Validate a submission
//	lectern validate --dictionary dictionary.json --schema donor --data donor.tsv
//
//	# List stored reports
//	lectern reports list --schema donor
//
//	# Watch the dictionary directory and serve probes and metrics
//	lectern watch --listen :9090
//
//	# Show version information
//	lectern version
package main

func main() {
	Execute()
}
