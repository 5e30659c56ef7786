// Package middleware provides middleware functionality for wrapping AI models
// with additional behavior like default settings, parameter transformation,
// and operation wrapping.
//
// Middleware can be applied to individual models or to entire providers:
//
//	// Apply middleware to a single model
//	model, err := openai.New(openai.Config{APIKey: "..."}).LanguageModel("gpt-4")
//	if err != nil {
//		// handle error
//	}
//	wrapped := middleware.WrapLanguageModel(model, []*middleware.LanguageModelMiddleware{
//		middleware.DefaultSettingsMiddleware(&provider.GenerateOptions{
//			Temperature: floatPtr(0.7),
//		}),
//	}, nil, nil)
//
//	// Apply middleware to all models from a provider
//	p := openai.New(openai.Config{APIKey: "..."})
//	wrappedProvider := middleware.WrapProvider(p,
//		[]*middleware.LanguageModelMiddleware{
//			middleware.DefaultSettingsMiddleware(&provider.GenerateOptions{
//				Temperature: floatPtr(0.7),
//			}),
//		},
//		nil, // embedding models are returned unwrapped
//	)
package middleware
