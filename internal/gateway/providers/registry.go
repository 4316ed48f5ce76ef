package providers

import "github.com/genai-playground/gateway/internal/shared/config"

// Family selects the upstream request/response schema for a model.
type Family int

const (
	// FamilyJob wraps request fields under "input" and answers with a
	// job-style {status, output.outputs[]} body.
	FamilyJob Family = iota
	// FamilyDirect sends fields at the top level and answers with a flat
	// {image} body.
	FamilyDirect
)

// Descriptor is the routing entry for one model identifier. Descriptors are
// immutable after Registry construction.
type Descriptor struct {
	ID          string
	EndpointURL string
	Family      Family

	// ImageInput marks models that accept a source image (edit operation).
	ImageInput bool
	// MultiImage marks direct-family models that take "input_images" as an
	// array instead of a scalar "image" field.
	MultiImage bool
}

// Registry maps model identifiers to descriptors. The table is fixed at
// process start; adding a model is a table edit, not a new code branch.
type Registry struct {
	models map[string]Descriptor
}

// NewRegistry builds the model table with endpoint URLs from config.
func NewRegistry(cfg *config.Config) *Registry {
	table := []Descriptor{
		{ID: "flux_kontext", EndpointURL: cfg.FluxKontextURL, Family: FamilyJob, ImageInput: true},
		{ID: "flux_krea", EndpointURL: cfg.FluxKreaURL, Family: FamilyJob},
		{ID: "flux_klein", EndpointURL: cfg.FluxKleinURL, Family: FamilyDirect, ImageInput: true, MultiImage: true},
		{ID: "qwen_image", EndpointURL: cfg.QwenImageURL, Family: FamilyDirect, ImageInput: true},
	}

	models := make(map[string]Descriptor, len(table))
	for _, d := range table {
		models[d.ID] = d
	}
	return &Registry{models: models}
}

// Resolve looks up the descriptor for a model identifier. Unknown
// identifiers are rejected here, before any network call.
func (r *Registry) Resolve(model string) (Descriptor, error) {
	d, ok := r.models[model]
	if !ok {
		return Descriptor{}, &UnknownModelError{Model: model}
	}
	return d, nil
}

// Models returns the configured model identifiers.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	return ids
}
