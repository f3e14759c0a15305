package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/orderflow/pkg/config"
)

const daprRequestTimeout = 10 * time.Second

// newDaprTransport publishes through a Dapr sidecar. The sidecar pushes
// deliveries to the service's subscription route, so there is no subscriber.
func newDaprTransport(cfg *config.Config) transport {
	client := &http.Client{
		Timeout:   daprRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	endpoint := strings.TrimRight(cfg.DaprHTTPEndpoint, "/")
	return transport{
		publisher: &daprPublisher{
			client:     client,
			endpoint:   endpoint,
			pubSubName: cfg.PubSubName,
		},
		ping: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/v1.0/healthz", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= http.StatusMultipleChoices {
				return fmt.Errorf("sidecar health returned %d", resp.StatusCode)
			}
			return nil
		},
	}
}

// daprPublisher adapts the sidecar publish API to message.Publisher.
type daprPublisher struct {
	client     *http.Client
	endpoint   string
	pubSubName string
}

func (p *daprPublisher) Publish(topic string, msgs ...*message.Message) error {
	target := fmt.Sprintf("%s/v1.0/publish/%s/%s", p.endpoint, url.PathEscape(p.pubSubName), url.PathEscape(topic))
	for _, msg := range msgs {
		if err := p.publishOne(msg.Context(), target, msg); err != nil {
			return err
		}
	}
	return nil
}

func (p *daprPublisher) publishOne(ctx context.Context, target string, msg *message.Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(msg.Payload))
	if err != nil {
		return err
	}
	contentType := msg.Metadata.Get(MetadataContentType)
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("dapr publish: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dapr publish: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (p *daprPublisher) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
