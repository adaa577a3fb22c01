package avatar

import _ "embed"

// Version is the release version, read from the VERSION file at the
// repository root. It usually carries a trailing newline; trim before
// printing.
//
//go:embed VERSION
var Version string
