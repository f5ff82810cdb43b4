package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// UnknownLabel is the sentinel returned when no detected label clears the
// confidence threshold.
const UnknownLabel = "Unknown"

// labelConfidenceThreshold drops low-confidence guesses before a label is
// offered as an item name.
const labelConfidenceThreshold = 75

var ErrVisionAPI = errors.New("vision API error")

type VisionLabel struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type visionDetectRequest struct {
	ImageBytes    []byte `json:"image_bytes"`
	MaxLabels     int    `json:"max_labels"`
	MinConfidence int    `json:"min_confidence"`
}

type visionDetectResponse struct {
	Labels []VisionLabel `json:"labels"`
}

// VisionDetectLabels sends raw image bytes to the external labeling service
// and returns its candidate labels.
func (c Client) VisionDetectLabels(image []byte) ([]VisionLabel, error) {
	reqBody, err := json.Marshal(visionDetectRequest{
		ImageBytes:    image,
		MaxLabels:     10,
		MinConfidence: 70,
	})
	if err != nil {
		return nil, errors.Wrap(err, "VisionDetectLabels: error marshalling request")
	}

	req, err := newRequest(http.MethodPost, c.VisionAPIURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "VisionDetectLabels: error creating HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.VisionAPIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "VisionDetectLabels: error doing request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("VisionDetectLabels: error closing response body, err: %v", err)
		}
	}()

	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300000))
	if err != nil {
		return nil, errors.Wrap(err, "VisionDetectLabels: error reading response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrVisionAPI,
			"VisionDetectLabels: unexpected status: %d, response body: %s", resp.StatusCode, respBody)
	}

	detectResp := visionDetectResponse{}
	if err = json.Unmarshal(respBody, &detectResp); err != nil {
		return nil, errors.Wrapf(err, "VisionDetectLabels: error unmarshalling response body: %s", respBody)
	}
	return detectResp.Labels, nil
}

// PickLabel chooses the best-guess item name from detected labels: labels
// under the confidence threshold are ignored, a grocery keyword match wins
// over raw confidence, and with nothing left the unknown sentinel is
// returned.
func PickLabel(labels []VisionLabel) string {
	var confident []VisionLabel
	for _, l := range labels {
		if l.Confidence >= labelConfidenceThreshold && l.Name != "" {
			confident = append(confident, l)
		}
	}
	if len(confident) == 0 {
		return UnknownLabel
	}

	for _, l := range confident {
		if _, ok := groceryKeywords[strings.ToLower(l.Name)]; ok {
			return l.Name
		}
	}

	best := confident[0]
	for _, l := range confident[1:] {
		if l.Confidence > best.Confidence {
			best = l
		}
	}
	return best.Name
}

// groceryKeywords biases label selection toward names that make sense as
// pantry stock.
var groceryKeywords = map[string]struct{}{
	"apple": {}, "banana": {}, "orange": {}, "lemon": {}, "grape": {},
	"strawberry": {}, "tomato": {}, "potato": {}, "onion": {}, "garlic": {},
	"carrot": {}, "broccoli": {}, "lettuce": {}, "cucumber": {}, "pepper": {},
	"bread": {}, "rice": {}, "pasta": {}, "flour": {}, "sugar": {},
	"salt": {}, "milk": {}, "cheese": {}, "butter": {}, "yogurt": {},
	"egg": {}, "chicken": {}, "beef": {}, "pork": {}, "fish": {},
	"coffee": {}, "tea": {}, "juice": {}, "water": {}, "cereal": {},
	"honey": {}, "oil": {}, "vinegar": {}, "bean": {}, "corn": {},
}
