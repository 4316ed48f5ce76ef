package providers

import "strings"

// payloadFields is the field set shared by both request schemas. Field order
// is part of the wire contract with the provider and must stay stable.
type payloadFields struct {
	Prompt             string   `json:"prompt"`
	Image              string   `json:"image,omitempty"`
	InputImages        []string `json:"input_images,omitempty"`
	EnableBase64Output bool     `json:"enable_base64_output"`
}

// jobPayload nests the field set one level under "input", as the job-style
// endpoints expect.
type jobPayload struct {
	Input payloadFields `json:"input"`
}

// StripDataURL removes a data-URL prefix ("data:image/png;base64,....")
// from a base64 string. The split is textual on the first comma, not a
// MIME-aware parse; the same rule applies on both request and response.
func StripDataURL(b64 string) string {
	if i := strings.IndexByte(b64, ','); i >= 0 {
		return b64[i+1:]
	}
	return b64
}

// Shape builds the provider-specific request payload for a model. An empty
// sourceImage is a pure text-to-image request; a non-empty one is an edit
// and requires a descriptor with image-input support. Shape is deterministic
// and performs no I/O.
func Shape(d Descriptor, prompt, sourceImage string) (any, error) {
	fields := payloadFields{
		Prompt:             prompt,
		EnableBase64Output: true,
	}

	if sourceImage != "" {
		if !d.ImageInput {
			return nil, &UnsupportedEditError{Model: d.ID}
		}
		img := StripDataURL(sourceImage)
		if d.Family == FamilyDirect && d.MultiImage {
			fields.InputImages = []string{img}
		} else {
			fields.Image = img
		}
	}

	if d.Family == FamilyJob {
		return jobPayload{Input: fields}, nil
	}
	return fields, nil
}
