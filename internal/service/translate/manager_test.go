package translate

import (
	"context"
	stderrors "errors"
	"testing"

	"go.uber.org/zap"
)

func TestNewModelManagerWithoutAnyKey(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("missing API keys must not fail construction: %v", err)
	}
	if mm.Enabled() {
		t.Fatal("manager without providers must report disabled")
	}

	_, err = mm.Generate(context.Background(), "translate this")
	if !stderrors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestDisabledManagerDegradesTranslationToNoOp(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := NewService(mm, newFakeCache(), zap.NewNop())
	out, ok := svc.Translate(context.Background(), "A teacher...", "nl")
	if ok || out != "" {
		t.Fatalf("expected absent result, got %q (ok=%v)", out, ok)
	}
}

func TestNewModelManagerOpenAIOnly(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{
		OpenAIAPIKey:   "sk-test",
		EnableFallback: false,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mm.Enabled() {
		t.Fatal("OpenAI key alone must enable the manager")
	}
}
