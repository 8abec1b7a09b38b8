package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tunespot/internal/domain"
	"tunespot/internal/logging"
)

const (
	fieldName       = "audio"
	fileName        = "audio.wav"
	partContentType = "audio/wav"
	successToken    = "Success"
)

// Config controls the recognition endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client submits recordings to the remote recognition service.
type Client struct {
	endpoint string
	http     *http.Client
	logger   logrus.FieldLogger
}

func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/recognize",
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Recognize posts the asset once. It never retries; a transport failure is
// reported as such and a fresh capture is the caller's business.
func (c *Client) Recognize(ctx context.Context, asset domain.AudioAsset) domain.RecognitionOutcome {
	if asset.Temporary {
		defer func() {
			if err := os.Remove(asset.Location); err != nil && !errors.Is(err, os.ErrNotExist) {
				c.logger.WithError(err).WithField("asset", asset.Location).Warn("failed to remove recording")
			}
		}()
	}

	body, contentType, err := buildRequestBody(asset)
	if err != nil {
		return domain.TransportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return domain.TransportFailure(err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("failed to call recognition service: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("failed to read recognition response: %w", err))
	}

	outcome := decodeOutcome(raw)
	c.logger.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"outcome": outcome.Kind,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Info("recognition response")
	return outcome
}

func buildRequestBody(asset domain.AudioAsset) (*bytes.Buffer, string, error) {
	file, err := os.Open(asset.Location)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", partContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read recording: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func decodeOutcome(raw []byte) domain.RecognitionOutcome {
	if !json.Valid(raw) {
		return domain.TransportFailure(errors.New("failed to parse response: body is not valid JSON"))
	}
	var decoded recognizeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Valid JSON in a shape we do not know.
		return domain.NoMatch()
	}
	if decoded.Status == nil || decoded.Status.Msg != successToken {
		return domain.NoMatch()
	}
	if decoded.Metadata == nil || len(decoded.Metadata.Music) == 0 {
		return domain.NoMatch()
	}
	return domain.Matched(decoded.Metadata.Music[0].record())
}
