// Package importer runs schedule imports: it reads a CSV schedule, turns its
// rows into events and creates them one at a time in the user's Google
// Calendar.
//
// Three entry points share the same pipeline. ImportSchedule picks one of the
// six bundled schedules by index, ImportUpload imports a user's uploaded file
// and always deletes it afterwards, and ImportFile imports any path (used by
// the command line).
//
// Submission is strictly sequential. When a create call fails the import
// stops; events created before the failure stay in the calendar and the
// returned *SubmissionError reports how many there were.
package importer
