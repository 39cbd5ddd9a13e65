package bootstrap

import (
	"testing"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/llm"
	openai "github.com/shalwin04/ai-insights-copilot-sub000/internal/llm/openai"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/config"
)

func TestBuildLLMClientDevFallsBackWithoutKey(t *testing.T) {
	cfg := config.Config{Env: "dev", LLMProvider: "openai", LLMModel: "gpt-4o-mini"}

	client, err := buildLLMClient(cfg, "")
	if err != nil {
		t.Fatalf("dev bootstrap should not fail without an API key: %v", err)
	}
	if _, ok := client.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder client, got %T", client)
	}
}

func TestBuildLLMClientProdRequiresKey(t *testing.T) {
	cfg := config.Config{Env: "prod", LLMProvider: "openai", LLMModel: "gpt-4o-mini"}

	if _, err := buildLLMClient(cfg, ""); err == nil {
		t.Fatal("expected error for missing API key in prod")
	}
}

func TestBuildLLMClientOpenAIWithKey(t *testing.T) {
	cfg := config.Config{Env: "prod", LLMProvider: "openai", LLMModel: "gpt-4o-mini"}

	client, err := buildLLMClient(cfg, "sk-test")
	if err != nil {
		t.Fatalf("buildLLMClient: %v", err)
	}
	if _, ok := client.(*openai.Client); !ok {
		t.Fatalf("expected OpenAI client, got %T", client)
	}
}

func TestBuildLLMClientPlaceholderProvider(t *testing.T) {
	cfg := config.Config{Env: "prod", LLMProvider: "placeholder"}

	client, err := buildLLMClient(cfg, "")
	if err != nil {
		t.Fatalf("buildLLMClient: %v", err)
	}
	if _, ok := client.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder client, got %T", client)
	}
}
