package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("WithoutCause", func(t *testing.T) {
		err := New(ErrCodeInvalidGeometry, "SID %.0f must be < SDD %.0f", 700.0, 500.0)
		want := "INVALID_GEOMETRY: SID 700 must be < SDD 500"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("WithCause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := Wrap(ErrCodeInternal, cause, "saving %s", "figs/sinogram.png")
		if !strings.Contains(err.Error(), "INTERNAL_ERROR") {
			t.Errorf("Error() = %q, missing code", err.Error())
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("Error() = %q, missing cause", err.Error())
		}
	})
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{
			name: "MatchingCode",
			err:  New(ErrCodeDivideByZero, "background mean is zero"),
			code: ErrCodeDivideByZero,
			want: true,
		},
		{
			name: "DifferentCode",
			err:  New(ErrCodeDivideByZero, "background mean is zero"),
			code: ErrCodeIndexOutOfRange,
			want: false,
		},
		{
			name: "WrappedInStdError",
			err:  fmt.Errorf("running figure suite: %w", New(ErrCodeProjectionOutOfFrame, "all rays missed")),
			code: ErrCodeProjectionOutOfFrame,
			want: true,
		},
		{
			name: "PlainError",
			err:  stderrors.New("plain"),
			code: ErrCodeInternal,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(ErrCodeInvalidParam, cause, "kVp must be positive")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidPhantom, "zero width")); got != ErrCodeInvalidPhantom {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeInvalidPhantom)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeIndexOutOfRange, "row 300 outside 256x256 radiograph")
	if got := UserMessage(err); got != "row 300 outside 256x256 radiograph" {
		t.Errorf("UserMessage() = %q", got)
	}
	plain := stderrors.New("plain message")
	if got := UserMessage(plain); got != "plain message" {
		t.Errorf("UserMessage() on plain error = %q", got)
	}
}
