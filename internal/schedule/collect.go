package schedule

// Result summarizes one pass over a schedule.
type Result struct {
	Events      []CalendarEvent
	RowsRead    int
	RowsSkipped int
}

// Collect reads every row from r and normalizes it with n. Incomplete rows
// are counted in RowsSkipped. The first read or timestamp error aborts the
// pass.
func Collect(r *Reader, n Normalizer) (Result, error) {
	var res Result
	for row, err := range r.Rows() {
		if err != nil {
			return res, err
		}
		res.RowsRead++
		ev, ok, err := n.Normalize(row)
		if err != nil {
			return res, err
		}
		if !ok {
			res.RowsSkipped++
			continue
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}
