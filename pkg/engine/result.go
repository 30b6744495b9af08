package engine

import (
	"fmt"
	"time"
)

// Fields is the structured payload produced by the content extractor. Field
// meaning is owned by the extractor; the engine only checks key-field
// presence.
type Fields map[string]string

// HasAny reports whether at least one of the given keys is present and
// non-empty.
func (f Fields) HasAny(keys ...string) bool {
	for _, k := range keys {
		if f[k] != "" {
			return true
		}
	}
	return false
}

// TargetError describes why a target terminally failed.
type TargetError struct {
	// Kind is a stable machine-readable category ("exhausted", "cancelled").
	Kind string

	// Message is the human-readable description.
	Message string
}

// Error implements the error interface.
func (e *TargetError) Error() string {
	return e.Message
}

// Result is the terminal outcome for a single target. It is immutable once
// finalized: the attempt machine builds it through resultBuilder and hands
// out the finished value only.
type Result struct {
	// Target is the request identity, normally an absolute URL.
	Target string

	// Fields holds the extracted payload from the last accepted response.
	Fields Fields

	// KeyFields lists which fields count toward success, per the extractor
	// contract in effect when the result was finalized.
	KeyFields []string

	// Err is set only when the retry budget was exhausted or the run was
	// cancelled; a nil Err means the target succeeded.
	Err *TargetError

	// Elapsed is the duration of the attempt that produced the final state.
	// Targets that never received an accepted response report zero.
	Elapsed time.Duration

	// Attempts is the 1-based number of attempts made.
	Attempts int

	// Batch is the 1-based index of the batch that produced this result.
	Batch int
}

// Successful reports whether the fetch produced usable data: no terminal
// error and at least one key field populated. A result may carry no error and
// still be unsuccessful when extraction yielded nothing meaningful.
func (r Result) Successful() bool {
	if r.Err != nil {
		return false
	}
	return r.Fields.HasAny(r.KeyFields...)
}

// resultBuilder accumulates per-attempt state and finalizes exactly once.
type resultBuilder struct {
	target    string
	batch     int
	keyFields []string

	fields  Fields
	elapsed time.Duration

	finalized bool
}

func newResultBuilder(target string, batch int, keyFields []string) *resultBuilder {
	return &resultBuilder{
		target:    target,
		batch:     batch,
		keyFields: keyFields,
	}
}

// observe records the payload and timing of an accepted response. Later
// attempts overwrite earlier ones; the final state reflects the last accepted
// response seen.
func (b *resultBuilder) observe(fields Fields, elapsed time.Duration) {
	b.fields = fields
	b.elapsed = elapsed
}

func (b *resultBuilder) finalize(attempts int, err *TargetError) Result {
	if b.finalized {
		panic("result finalized twice for target " + b.target)
	}
	b.finalized = true

	return Result{
		Target:    b.target,
		Fields:    b.fields,
		KeyFields: b.keyFields,
		Err:       err,
		Elapsed:   b.elapsed,
		Attempts:  attempts,
		Batch:     b.batch,
	}
}

// success finalizes a terminal success after the given attempt count.
func (b *resultBuilder) success(attempts int) Result {
	return b.finalize(attempts, nil)
}

// exhausted finalizes a terminal failure after the full retry budget.
func (b *resultBuilder) exhausted(attempts int) Result {
	return b.finalize(attempts, &TargetError{
		Kind:    "exhausted",
		Message: fmt.Sprintf("failed after %d attempts", attempts),
	})
}

// cancelled finalizes a terminal failure caused by run cancellation.
func (b *resultBuilder) cancelled(attempts int, cause error) Result {
	return b.finalize(attempts, &TargetError{
		Kind:    "cancelled",
		Message: fmt.Sprintf("cancelled after %d attempts: %v", attempts, cause),
	})
}
