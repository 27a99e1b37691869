// Package googleai provides AI service implementations backed by the Gemini API.
//
// Both the embedder and the generator share a single langchaingo googleai
// client created from an ai.Config.
//
// # Usage
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := googleai.NewProvider(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Who won the 2021 championship?")
//	answer, err := provider.Generator().Generate(ctx, messages)
//
// Embeddings whose length differs from Config.Dimensions are reported as
// errors so they never reach a collection with a different dimension.
package googleai
