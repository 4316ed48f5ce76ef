package providers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// jobResponse is the job-style response body: success requires
// status == "COMPLETED" and a non-empty outputs array.
type jobResponse struct {
	Status string `json:"status"`
	Output struct {
		Outputs []string `json:"outputs"`
	} `json:"output"`
}

// directResponse is the flat response body: success requires a non-empty
// "image" key.
type directResponse struct {
	Image string `json:"image"`
}

// Normalize decodes a raw provider response into PNG bytes. Providers
// evolved inconsistent response shapes over time; this is the single point
// that tracks every shape, fails closed on anything unrecognized, and never
// returns partial data.
func Normalize(d Descriptor, statusCode int, body []byte) ([]byte, error) {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{StatusCode: statusCode, Body: string(body)}
	}

	var image string
	switch d.Family {
	case FamilyDirect:
		var resp directResponse
		if err := json.Unmarshal(body, &resp); err != nil || resp.Image == "" {
			return nil, &MissingOutputError{}
		}
		image = resp.Image
	default:
		var resp jobResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &MissingOutputError{}
		}
		if resp.Status != "COMPLETED" || len(resp.Output.Outputs) == 0 {
			return nil, &MissingOutputError{JobStatus: resp.Status}
		}
		image = resp.Output.Outputs[0]
	}

	raw, err := base64.StdEncoding.DecodeString(StripDataURL(image))
	if err != nil {
		return nil, &MalformedImageError{Err: err}
	}
	return raw, nil
}
