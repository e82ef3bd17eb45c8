package util

// Configuration is populated once from CLI flags in cmd/slug and passed
// by value into the pipeline.
type Configuration struct {
	SourcePath string
	DebugAST   bool
	LogLevel   string
	LogFile    string
}
