package data

// File types the reader understands, keyed by extension.
const (
	FileTypeCSV   = "csv"
	FileTypeXLSX  = "xlsx"
	FileTypeStata = "dta"
)
