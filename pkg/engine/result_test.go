package engine

import "testing"

func TestFields_HasAny(t *testing.T) {
	tests := []struct {
		name     string
		fields   Fields
		keys     []string
		expected bool
	}{
		{
			name:     "key present",
			fields:   Fields{"title": "Film"},
			keys:     []string{"title", "country"},
			expected: true,
		},
		{
			name:     "key empty",
			fields:   Fields{"title": ""},
			keys:     []string{"title"},
			expected: false,
		},
		{
			name:     "no keys given",
			fields:   Fields{"title": "Film"},
			keys:     nil,
			expected: false,
		},
		{
			name:     "nil fields",
			fields:   nil,
			keys:     []string{"title"},
			expected: false,
		},
		{
			name:     "secondary key present",
			fields:   Fields{"title": "", "country": "Россия"},
			keys:     []string{"title", "country"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fields.HasAny(tt.keys...); got != tt.expected {
				t.Errorf("HasAny(%v) = %v, want %v", tt.keys, got, tt.expected)
			}
		})
	}
}

func TestResult_Successful(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected bool
	}{
		{
			name: "no error and key field present",
			result: Result{
				Fields:    Fields{"title": "Film"},
				KeyFields: []string{"title"},
			},
			expected: true,
		},
		{
			name: "error set despite fields",
			result: Result{
				Fields:    Fields{"title": "Film"},
				KeyFields: []string{"title"},
				Err:       &TargetError{Kind: "exhausted", Message: "failed after 4 attempts"},
			},
			expected: false,
		},
		{
			name: "no error but nothing extracted",
			result: Result{
				Fields:    Fields{},
				KeyFields: []string{"title"},
			},
			expected: false,
		},
		{
			name: "non-key fields only",
			result: Result{
				Fields:    Fields{"year": "2025"},
				KeyFields: []string{"title", "country"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Successful(); got != tt.expected {
				t.Errorf("Successful() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestResultBuilder_FinalizesOnce(t *testing.T) {
	b := newResultBuilder("https://example.test/x", 1, []string{"title"})
	b.observe(Fields{"title": "Film"}, 0)
	_ = b.success(1)

	defer func() {
		if recover() == nil {
			t.Error("second finalize did not panic")
		}
	}()
	_ = b.exhausted(4)
}

func TestResultBuilder_ExhaustedMessage(t *testing.T) {
	b := newResultBuilder("https://example.test/y", 3, []string{"title"})
	r := b.exhausted(4)

	if r.Err == nil {
		t.Fatal("Err = nil, want exhaustion error")
	}
	if r.Err.Message != "failed after 4 attempts" {
		t.Errorf("Err.Message = %q, want %q", r.Err.Message, "failed after 4 attempts")
	}
	if r.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", r.Attempts)
	}
	if r.Batch != 3 {
		t.Errorf("Batch = %d, want 3", r.Batch)
	}
}
