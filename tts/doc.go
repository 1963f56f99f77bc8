// Package tts defines the synthesis request/result model and the provider
// contract shared by every text-to-speech backend.
//
// The package provides:
//   - SynthesisRequest and SynthesisResult value objects
//   - Provider interface all backends implement
//   - ProviderInfo and ProviderStatus for diagnostics
//   - Error taxonomy for validation and synthesis failures
//   - Normalization helpers mapping the [-100, +100] rate/pitch scales to
//     backend-specific units
//
// # Usage
//
// Backends are not invoked directly; they are registered with an
// orchestrator.Chain which sequences them with per-provider circuit
// breakers:
//
//	result, err := chain.Synthesize(ctx, tts.SynthesisRequest{
//	    Text:  "Dobrý den",
//	    Voice: "cs-CZ-Wavenet-A",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Success {
//	    os.WriteFile("out.mp3", result.Audio.Data, 0o644)
//	}
package tts
