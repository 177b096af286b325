package diag

// Stage tags the pipeline phase that produced a diagnostic.
type Stage string

const (
	// StageCompile covers the external backend invocation.
	StageCompile Stage = "compile"
	// StageSignature covers signature description parsing.
	StageSignature Stage = "signature"
	// StageBind covers argument binding.
	StageBind Stage = "bind"
	// StagePatch covers patch application.
	StagePatch Stage = "patch"
	// StageLink covers link orchestration itself.
	StageLink Stage = "link"
)

// Diagnostic is a single structured message produced somewhere in the
// pipeline. Immutable once created.
type Diagnostic struct {
	Severity Severity
	Category Category
	Stage    Stage
	Message  string
}

// String renders the diagnostic as "<Severity>: <category>" followed by
// the message on the next line. Downstream log consumers parse this
// shape; do not change it.
func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Category.String() + "\n" + d.Message
}

// New constructs a diagnostic value.
func New(sev Severity, cat Category, stage Stage, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Category: cat, Stage: stage, Message: msg}
}
