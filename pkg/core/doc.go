// Package core defines the shared language of the leapcharts system.
//
// This package contains:
//   - Result data (Table, Field, ValueType)
//   - The error taxonomy shared by every job stage (Error, ErrorKind)
//   - Run bookkeeping (RunReport, JobOutcome, JobStatus)
//   - Store connection types (AdapterConfig, Rows)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
