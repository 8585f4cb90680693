package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "saving order")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeStateConflict, "cannot cancel dispatched order")
	wrapped := Wrap(CodeInternal, inner, "outer")
	// As unwraps to the outermost typed error.
	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestCodeOfUntyped(t *testing.T) {
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if got := CodeOf(New(CodeNotFound, "missing")); got != CodeNotFound {
		t.Fatalf("expected not found, got %s", got)
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to 500, got %d", meta.HTTPStatus)
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeValidation, "coupon code required")
	if !IsCode(err, CodeValidation) {
		t.Fatal("expected validation code match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
	if IsCode(nil, CodeValidation) {
		t.Fatal("nil error must not match")
	}
}
