package huggingface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/w-h-a/idc-assistant/classifier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type huggingfaceClassifier struct {
	options classifier.Options
	client  *http.Client
}

func (c *huggingfaceClassifier) Classify(ctx context.Context, imageRef string) (classifier.Result, error) {
	imageBytes, err := c.readImage(ctx, imageRef)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("unable to open image: %w", err)
	}

	req := map[string]any{
		"inputs": map[string]any{
			"image": base64.StdEncoding.EncodeToString(imageBytes),
		},
		"parameters": map[string]any{
			"candidate_labels": c.options.Labels,
		},
	}

	scored, err := c.do(ctx, req)
	if isTimeout(err) {
		scored, err = c.do(ctx, req)
	}
	if err != nil {
		return classifier.Result{}, err
	}

	return buildResult(scored)
}

type scoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *huggingfaceClassifier) do(ctx context.Context, payload map[string]any) ([]scoredLabel, error) {
	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/models/%s", c.options.Location, c.options.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "application/json")
	if len(c.options.ApiKey) > 0 {
		req.Header.Add("Authorization", "Bearer "+c.options.ApiKey)
	}

	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode >= 400 {
		body, _ := io.ReadAll(rsp.Body)
		return nil, fmt.Errorf("status: %s %s", rsp.Status, strings.TrimSpace(string(body)))
	}

	var scored []scoredLabel
	if err := json.NewDecoder(rsp.Body).Decode(&scored); err != nil {
		return nil, err
	}

	return scored, nil
}

func (c *huggingfaceClassifier) readImage(ctx context.Context, imageRef string) ([]byte, error) {
	if !strings.HasPrefix(imageRef, "http://") && !strings.HasPrefix(imageRef, "https://") {
		return os.ReadFile(imageRef)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
	if err != nil {
		return nil, err
	}

	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode >= 400 {
		return nil, fmt.Errorf("status: %s", rsp.Status)
	}

	return io.ReadAll(rsp.Body)
}

// buildResult normalizes the endpoint's label scores into a distribution
// that sums to 1 and picks the argmax as the prediction.
func buildResult(scored []scoredLabel) (classifier.Result, error) {
	if len(scored) == 0 {
		return classifier.Result{}, errors.New("no scores from classifier")
	}

	var sum float64
	for _, s := range scored {
		if s.Score < 0 {
			return classifier.Result{}, fmt.Errorf("negative score for label %q", s.Label)
		}
		sum += s.Score
	}

	if sum <= 0 {
		return classifier.Result{}, errors.New("classifier scores sum to zero")
	}

	scores := make(map[string]float64, len(scored))
	for _, s := range scored {
		scores[s.Label] = s.Score / sum
	}

	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	prediction := labels[0]
	for _, label := range labels[1:] {
		if scores[label] > scores[prediction] {
			prediction = label
		}
	}

	return classifier.Result{
		Prediction: prediction,
		Confidence: scores[prediction],
		Scores:     scores,
	}, nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func NewClassifier(opts ...classifier.Option) classifier.Classifier {
	options := classifier.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "https://api-inference.huggingface.co"
	}

	if len(options.Model) == 0 {
		options.Model = "openai/clip-vit-base-patch32"
	}

	c := &huggingfaceClassifier{
		options: options,
	}

	client := &http.Client{
		Timeout:   options.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	c.client = client

	return c
}
