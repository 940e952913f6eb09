package logging

// Keys for structured log fields.
const (
	FieldError  = "error"
	FieldPath   = "path"
	FieldInput  = "input"
	FieldOutput = "output"
	FieldConfig = "config"

	FieldFlavor = "flavor"
	FieldStyle  = "style"
	FieldWidth  = "width"

	// Source map and sync.
	FieldOffset     = "offset"
	FieldGeneration = "generation"
	FieldEntries    = "entries"
	FieldX          = "x"
	FieldY          = "y"

	// Export.
	FieldFiles     = "files"
	FieldWritten   = "written"
	FieldUnchanged = "unchanged"
	FieldFailed    = "failed"

	// Preview server.
	FieldAddr      = "addr"
	FieldMethod    = "method"
	FieldRoute     = "route"
	FieldStatus    = "status"
	FieldRequestID = "request_id"
	FieldClients   = "clients"

	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
