package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDuplicateAnchor, "anchor %q already defined", "title")

	if err.Code != ErrCodeDuplicateAnchor {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDuplicateAnchor)
	}

	if err.Message != `anchor "title" already defined` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `DUPLICATE_ANCHOR: anchor "title" already defined`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidImage, cause, "decode logo.png")

	if err.Code != ErrCodeInvalidImage {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidImage)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

type multi []error

func (m multi) Error() string   { return fmt.Sprint([]error(m)) }
func (m multi) Unwrap() []error { return m }

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeUnboundedFill, "test"),
			code:     ErrCodeUnboundedFill,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeUnboundedFill, "test"),
			code:     ErrCodeNegativeSize,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeRenderFailed, New(ErrCodeInvalidImage, "inner"), "outer"),
			code:     ErrCodeInvalidImage,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("slide 2: %w", New(ErrCodeUnknownAnchor, "x")),
			code:     ErrCodeUnknownAnchor,
			expected: true,
		},
		{
			name:     "multi error",
			err:      multi{errors.New("plain"), New(ErrCodeNegativeSize, "x")},
			code:     ErrCodeNegativeSize,
			expected: true,
		},
		{
			name:     "joined error",
			err:      errors.Join(New(ErrCodeEmptyDeck, "x")),
			code:     ErrCodeEmptyDeck,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidDeck, "test"),
			expected: ErrCodeInvalidDeck,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{ErrCodeDuplicateAnchor, CategoryStructural},
		{ErrCodeInvalidAnchor, CategoryStructural},
		{ErrCodeUnboundedFill, CategoryLayout},
		{ErrCodeNegativeSize, CategoryLayout},
		{ErrCodeUnknownStyle, CategoryLayout},
		{ErrCodeUnknownAnchor, CategoryAnnotation},
		{ErrCodeEmptyDeck, CategoryAssembly},
		{ErrCodeRenderFailed, CategoryAssembly},
		{ErrCodeInvalidDeck, CategoryInput},
		{ErrCodeFileNotFound, CategoryInput},
		{ErrCodeInternal, CategoryInternal},
		{Code("SOMETHING_ELSE"), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := CategoryOf(tt.code); got != tt.want {
				t.Errorf("CategoryOf(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
