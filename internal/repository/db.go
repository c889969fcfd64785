package repository

// scanner is the common surface of *sql.Row and *sql.Rows, so the scan
// helpers serve single-row and multi-row reads alike.
type scanner interface {
	Scan(dest ...any) error
}
