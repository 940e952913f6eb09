package export

// FileOutcome is what happened to one source file.
type FileOutcome struct {
	// Path is the absolute source path.
	Path string

	// Output and MapOutput are the files produced; MapOutput is empty unless
	// source maps were requested.
	Output    string
	MapOutput string

	// Entries is the number of annotated elements in the source map.
	Entries int

	// Failed marks a document that rendered to the error placeholder. The
	// placeholder is still written.
	Failed bool

	// Written is false when the output already held identical content.
	Written bool

	// Error is set when the file could not be read, rendered or written.
	Error error
}

// Stats captures aggregate information about an export.
type Stats struct {
	FilesDiscovered int
	FilesRendered   int
	FilesWritten    int
	FilesUnchanged  int
	FilesFailed     int
	FilesErrored    int
	Entries         int
}

// Result is the overall export result.
type Result struct {
	// Files holds one outcome per discovered file, sorted by path.
	Files []FileOutcome
	Stats Stats
}

// HasFailures reports whether any file errored or rendered to a placeholder.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.FilesErrored > 0 || r.Stats.FilesFailed > 0
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesRendered++
	r.Stats.Entries += outcome.Entries
	if outcome.Failed {
		r.Stats.FilesFailed++
	}
	if outcome.Written {
		r.Stats.FilesWritten++
	} else {
		r.Stats.FilesUnchanged++
	}
}
