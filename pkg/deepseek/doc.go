// Package deepseek exposes PatientSeek, and any other model served behind an
// OpenAI-compatible chat-completions endpoint, as generate-capable models.
//
// # Usage
//
//	plugin, err := deepseek.New(deepseek.Options{
//		APIKey: os.Getenv("PATIENT_SEEK_API_KEY"),
//	})
//	if err != nil {
//		return err
//	}
//
//	model, err := plugin.Model(registry.PatientSeek)
//	if err != nil {
//		return err
//	}
//
//	resp, err := model.Generate(ctx, &protocol.GenerateRequest{
//		Messages: []protocol.Message{
//			protocol.NewTextMessage(protocol.RoleUser, "What are the symptoms of anemia?"),
//		},
//	}, nil)
//
// Passing a non-nil protocol.StreamingCallback streams the response; the
// callback receives reasoning and content fragments as they arrive and
// Generate returns the aggregated response afterwards.
//
// Each Plugin owns its registry, so several plugins with different model
// tables or endpoints can live in one process.
package deepseek
