package comfy

// buildWorkflow assembles the node graph ComfyUI executes for one
// text-to-image run: checkpoint load, positive and negative prompt
// encoding, an empty latent, a sampler, VAE decode, and an image save.
func buildWorkflow(model, prompt string, opts Options) map[string]any {
	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs": map[string]any{
				"ckpt_name": model,
			},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": prompt,
				"clip": []any{"1", 1},
			},
		},
		"3": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": opts.NegativePrompt,
				"clip": []any{"1", 1},
			},
		},
		"4": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs": map[string]any{
				"width":      opts.Width,
				"height":     opts.Height,
				"batch_size": 1,
			},
		},
		"5": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"seed":         opts.Seed,
				"steps":        opts.Steps,
				"cfg":          opts.CFG,
				"sampler_name": "euler_ancestral",
				"scheduler":    "normal",
				"denoise":      1.0,
				"model":        []any{"1", 0},
				"positive":     []any{"2", 0},
				"negative":     []any{"3", 0},
				"latent_image": []any{"4", 0},
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs": map[string]any{
				"samples": []any{"5", 0},
				"vae":     []any{"1", 2},
			},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"filename_prefix": "compo",
				"images":          []any{"6", 0},
			},
		},
	}
}
