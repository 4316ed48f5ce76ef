package providers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestShapeJobFamilyGenerate(t *testing.T) {
	d := Descriptor{ID: "flux_krea", Family: FamilyJob}

	payload, err := Shape(d, "a red fox", "")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"input":{"prompt":"a red fox","enable_base64_output":true}}`,
		mustJSON(t, payload))
}

func TestShapeJobFamilyEdit(t *testing.T) {
	d := Descriptor{ID: "flux_kontext", Family: FamilyJob, ImageInput: true}

	payload, err := Shape(d, "make it night", "QUJD")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"input":{"prompt":"make it night","image":"QUJD","enable_base64_output":true}}`,
		mustJSON(t, payload))
}

func TestShapeDirectFamilyGenerate(t *testing.T) {
	d := Descriptor{ID: "qwen_image", Family: FamilyDirect, ImageInput: true}

	payload, err := Shape(d, "a red fox", "")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"prompt":"a red fox","enable_base64_output":true}`,
		mustJSON(t, payload))
}

func TestShapeDirectScalarImage(t *testing.T) {
	d := Descriptor{ID: "qwen_image", Family: FamilyDirect, ImageInput: true}

	payload, err := Shape(d, "make it night", "QUJD")
	require.NoError(t, err)

	raw := mustJSON(t, payload)
	assert.JSONEq(t,
		`{"prompt":"make it night","image":"QUJD","enable_base64_output":true}`,
		raw)
	assert.NotContains(t, raw, "input_images")
}

func TestShapeDirectMultiImage(t *testing.T) {
	d := Descriptor{ID: "flux_klein", Family: FamilyDirect, ImageInput: true, MultiImage: true}

	payload, err := Shape(d, "make it night", "QUJD")
	require.NoError(t, err)

	raw := mustJSON(t, payload)
	assert.JSONEq(t,
		`{"prompt":"make it night","input_images":["QUJD"],"enable_base64_output":true}`,
		raw)
	assert.NotContains(t, raw, `"image"`)
}

func TestShapeStripsDataURLPrefix(t *testing.T) {
	d := Descriptor{ID: "flux_kontext", Family: FamilyJob, ImageInput: true}

	payload, err := Shape(d, "p", "data:image/png;base64,AAAA")
	require.NoError(t, err)

	assert.Contains(t, mustJSON(t, payload), `"image":"AAAA"`)
}

func TestShapeRejectsEditOnTextOnlyModel(t *testing.T) {
	d := Descriptor{ID: "flux_krea", Family: FamilyJob}

	_, err := Shape(d, "p", "QUJD")
	require.Error(t, err)

	var unsupported *UnsupportedEditError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "flux_krea", unsupported.Model)
}

func TestShapeIsDeterministic(t *testing.T) {
	descriptors := []Descriptor{
		{ID: "flux_kontext", Family: FamilyJob, ImageInput: true},
		{ID: "flux_klein", Family: FamilyDirect, ImageInput: true, MultiImage: true},
	}
	for _, d := range descriptors {
		first, err := Shape(d, "same prompt", "QUJD")
		require.NoError(t, err)
		second, err := Shape(d, "same prompt", "QUJD")
		require.NoError(t, err)
		assert.Equal(t, mustJSON(t, first), mustJSON(t, second))
	}
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "AAAA", StripDataURL("data:image/png;base64,AAAA"))
	assert.Equal(t, "AAAA", StripDataURL("AAAA"))
	// Split is on the first comma only.
	assert.Equal(t, "AA,BB", StripDataURL("prefix,AA,BB"))
}
