package health

// DatasetCounter reports how many listings are loaded.
type DatasetCounter interface {
	Rows() int
}
