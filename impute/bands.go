package impute

// Band is one contiguous, non-overlapping row range of the grid.
type Band struct {
	Index int
	Row0  int
	NRows int
}

// partitionRows splits [0, rows) into contiguous bands of height chunkRows;
// the last band may be shorter.
func partitionRows(rows, chunkRows int) []Band {
	if chunkRows <= 0 || chunkRows > rows {
		chunkRows = rows
	}

	var bands []Band
	for row0 := 0; row0 < rows; row0 += chunkRows {
		n := chunkRows
		if row0+n > rows {
			n = rows - row0
		}
		bands = append(bands, Band{Index: len(bands), Row0: row0, NRows: n})
	}

	return bands
}
