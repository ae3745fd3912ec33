package domain

// AIProvider names a language model or embedding backend.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// providerInfo describes what a backend offers. An empty default model
// means the backend does not serve that capability.
type providerInfo struct {
	description    string
	cloud          bool
	llmModel       string
	embeddingModel string
}

// providers is ordered for display; Ollama first as it needs no key.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderOllama, providerInfo{"Ollama (local)", false, "llama3.2", "nomic-embed-text"}},
	{AIProviderOpenAI, providerInfo{"OpenAI (cloud)", true, "gpt-4o-mini", "text-embedding-3-small"}},
	{AIProviderAnthropic, providerInfo{"Anthropic (cloud)", true, "claude-3-5-sonnet-latest", ""}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, entry := range providers {
		if entry.id == p {
			return entry.providerInfo, true
		}
	}
	return providerInfo{}, false
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey reports whether p is a cloud API.
func (p AIProvider) RequiresAPIKey() bool {
	info, _ := p.info()
	return info.cloud
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	info, ok := p.info()
	return ok && !info.cloud
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the label shown by the settings wizard.
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.description
	}
	return "Unknown"
}

// ready reports whether p can be used with the given key.
func (p AIProvider) ready(apiKey string) bool {
	info, ok := p.info()
	return ok && (!info.cloud || apiKey != "")
}

// AllEmbeddingProviders lists the providers serving embeddings.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, entry := range providers {
		if entry.embeddingModel != "" {
			out = append(out, entry.id)
		}
	}
	return out
}

// AllLLMProviders lists the providers serving chat completions.
func AllLLMProviders() []AIProvider {
	var out []AIProvider
	for _, entry := range providers {
		if entry.llmModel != "" {
			out = append(out, entry.id)
		}
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, p := range AllEmbeddingProviders() {
		info, _ := p.info()
		out[p] = info.embeddingModel
	}
	return out
}

// DefaultLLMModels maps each chat provider to its default model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, p := range AllLLMProviders() {
		info, _ := p.info()
		out[p] = info.llmModel
	}
	return out
}

// EmbeddingDimensions returns the native vector size of known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
