package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"

	gapi "github.com/sorajate/craig/internal/pkg/gemini/api"
)

const defaultModel = "gemini-1.5-flash"

// Client communicates with the generative language transcription service
type Client struct {
	httpclient    *http.Client
	uploadURL     string
	generateURL   string
	key           string
	uploadTimeout time.Duration
	timeout       time.Duration
	backoff       func() backoff.BackOff
}

// NewClient creates a transcription service client
func NewClient(url, key, model string) (*Client, error) {
	res := Client{}
	if url == "" {
		return nil, fmt.Errorf("no url")
	}
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if model == "" {
		model = defaultModel
	}
	url = strings.TrimSuffix(url, "/")
	res.uploadURL = url + "/upload/v1beta/files"
	res.generateURL = fmt.Sprintf("%s/v1beta/models/%s:generateContent", url, model)
	res.key = key
	res.uploadTimeout = time.Minute * 10
	res.timeout = time.Minute * 5
	res.httpclient = geminiHTTPClient()
	res.backoff = newSimpleBackoff
	return &res, nil
}

type uploadResponse struct {
	File struct {
		Name     string `json:"name"`
		URI      string `json:"uri"`
		MimeType string `json:"mimeType"`
	} `json:"file"`
}

// Upload sends the audio file to the service, returns the remote file handle
func (sp *Client) Upload(ctx context.Context, filePath string) (*gapi.File, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("can't open audio file: %w", err)
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("can't read audio file: %w", err)
	}

	return goapp.InvokeWithBackoff(ctx, func() (*gapi.File, bool, error) {
		req, err := http.NewRequest(http.MethodPost, sp.uploadURL, bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Content-Type", "audio/ogg")
		req.Header.Set("X-Goog-Upload-Protocol", "raw")
		sp.addAuth(req)

		ctx, cancelF := context.WithTimeout(ctx, sp.uploadTimeout)
		defer cancelF()
		req = req.WithContext(ctx)
		goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
		resp, err := sp.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return nil, goapp.IsRetryableCode(resp.StatusCode), err
		}
		var respData uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return nil, true, fmt.Errorf("can't decode response: %w", err)
		}
		if respData.File.URI == "" {
			return nil, false, fmt.Errorf("can't get file URI from response")
		}
		return &gapi.File{Name: respData.File.Name, URI: respData.File.URI,
			MimeType: respData.File.MimeType}, false, nil
	}, sp.backoff())
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks the service to produce text from the uploaded file and a prompt
func (sp *Client) Generate(ctx context.Context, file *gapi.File, prompt string) (string, error) {
	mime := file.MimeType
	if mime == "" {
		mime = "audio/ogg"
	}
	inData := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{
			{Text: prompt},
			{FileData: &fileData{MimeType: mime, FileURI: file.URI}},
		}}},
		GenerationConfig: generationConfig{Temperature: 0.7, TopK: 1, TopP: 1, MaxOutputTokens: 8192},
		SafetySettings:   defaultSafetySettings(),
	}
	body, err := json.Marshal(inData)
	if err != nil {
		return "", fmt.Errorf("can't marshal request: %w", err)
	}

	return goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		req, err := http.NewRequest(http.MethodPost, sp.generateURL, bytes.NewReader(body))
		if err != nil {
			return "", false, err
		}
		req.Header.Set("Content-Type", "application/json")
		sp.addAuth(req)

		ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
		req = req.WithContext(ctx)
		goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
		resp, err := sp.httpclient.Do(req)
		if err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return "", goapp.IsRetryableCode(resp.StatusCode), err
		}
		var respData generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return "", true, fmt.Errorf("can't decode response: %w", err)
		}
		text := collectText(&respData)
		if text == "" {
			return "", false, fmt.Errorf("can't get text from response")
		}
		return text, false, nil
	}, sp.backoff())
}

func (sp *Client) addAuth(req *http.Request) {
	req.Header.Set("x-goog-api-key", sp.key)
}

func collectText(resp *generateResponse) string {
	var sb strings.Builder
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// safety thresholds are applied uniformly at medium and above
func defaultSafetySettings() []safetySetting {
	res := make([]safetySetting, 0, 4)
	for _, c := range []string{"HARM_CATEGORY_HARASSMENT", "HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT", "HARM_CATEGORY_DANGEROUS_CONTENT"} {
		res = append(res, safetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	return res
}

func geminiHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	// default roundripper is not well suited for our case
	// it has just 2 idle connections per host, so try to tune a bit
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
