// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	gen := mock.NewMockGenerator().WithResponse("synthesized report")
//	emb := mock.NewMockEmbedder().WithVector("adverse possession", []float32{1, 0, 0})
//
//	// Custom behavior injection
//	gen.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
//	    return "", errors.New("rate limited")
//	}
//
//	// Check calls
//	call, _ := gen.LastCall()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns "mock response"
//   - MockProvider: Aggregates mock embedder and generator
package mock
