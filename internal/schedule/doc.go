// Package schedule turns CSV schedule files into calendar events.
//
// A schedule file has a header row naming its columns. The columns used are
// Subject, Start Date, Start Time, End Date, End Time and Description. Rows
// are read lazily with Reader.Rows and converted with a Normalizer:
//
//	r, err := schedule.Open("sheets/schedule1.csv")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	n := schedule.Normalizer{Location: time.Local}
//	for row, err := range r.Rows() {
//	    if err != nil {
//	        return err
//	    }
//	    ev, ok, err := n.Normalize(row)
//	    ...
//	}
//
// Rows missing any required field are skipped silently. A row whose date and
// time cannot be combined into a timestamp is an error.
package schedule
