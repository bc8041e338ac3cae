package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ChunkError      = 4
	IntegrityError  = 5
	PartialSuccess  = 6
)
