package dataset

import "fmt"

// DataLoadError indicates the source file is missing, unreadable, unparseable,
// or lacks a required column.
type DataLoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Op, e.Err)
	}
	return fmt.Sprintf("load: %s: %v", e.Op, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// EmptyDatasetError indicates no rows survived a filtering stage.
type EmptyDatasetError struct {
	Stage string
	Rows  int // rows entering the stage
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("empty dataset after %s (%d rows in, 0 out)", e.Stage, e.Rows)
}
