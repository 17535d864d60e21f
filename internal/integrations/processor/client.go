package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/config"
	"github.com/thorplatform/payout-service/internal/errs"
)

// TransferDetails is the processor's view of a submitted transfer.
type TransferDetails struct {
	ExternalID string
	Status     string
	Amount     float64
}

// Client talks to the ACH payment processor's XML API. All calls are bounded
// by the configured HTTP timeout; on timeout neither success nor failure may
// be assumed by the caller.
type Client struct {
	url    string
	key    string
	secret string
	client *http.Client
	log    *logrus.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient initializes a new processor client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:    cfg.ProcessorURL,
		key:    cfg.ProcessorKey,
		secret: cfg.ProcessorSecret,
		client: &http.Client{
			Timeout: cfg.ProcessorTimeout,
		},
		log: log,
	}
}

// Authorize obtains an API token, reusing a cached one until it expires.
func (c *Client) Authorize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return nil
	}

	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<authRequest>
			<key>%s</key>
			<secret>%s</secret>
		</authRequest>`, c.key, c.secret)

	resp, err := c.send(ctx, "/auth", "", body)
	if err != nil {
		return err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp); err != nil {
		return errs.Wrap(err, errs.KindGateway, "failed to parse auth response")
	}
	tokenEl := doc.FindElement("//authResponse/token")
	if tokenEl == nil {
		return errs.Gatewayf("no token in auth response")
	}
	expiresEl := doc.FindElement("//authResponse/expiresIn")
	expiresIn := 3600
	if expiresEl != nil {
		fmt.Sscanf(expiresEl.Text(), "%d", &expiresIn)
	}

	c.token = tokenEl.Text()
	c.tokenExp = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	c.log.Debugf("Processor token refreshed, expires in %ds", expiresIn)
	return nil
}

// CreateFundingSource registers a bank account with the processor under the
// given customer reference and returns the assigned funding source URI.
func (c *Client) CreateFundingSource(ctx context.Context, customerURI, routing, account, accountType, name string) (string, error) {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<fundingSourceRequest>
			<customer>%s</customer>
			<routingNumber>%s</routingNumber>
			<accountNumber>%s</accountNumber>
			<bankAccountType>%s</bankAccountType>
			<name>%s</name>
		</fundingSourceRequest>`, customerURI, routing, account, accountType, name)

	resp, err := c.authedSend(ctx, "/funding-sources", body)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp); err != nil {
		return "", errs.Wrap(err, errs.KindGateway, "failed to parse funding source response")
	}
	locEl := doc.FindElement("//fundingSourceResponse/location")
	if locEl == nil {
		return "", errs.Gatewayf("no location in funding source response")
	}
	return locEl.Text(), nil
}

// CreateTransfer submits a transfer and returns the processor-assigned
// external id.
func (c *Client) CreateTransfer(ctx context.Context, sourceURI, destinationURI string, amount float64, currency string) (string, error) {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<transferRequest>
			<source>%s</source>
			<destination>%s</destination>
			<amount currency="%s">%.2f</amount>
		</transferRequest>`, sourceURI, destinationURI, currency, amount)

	resp, err := c.authedSend(ctx, "/transfers", body)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp); err != nil {
		return "", errs.Wrap(err, errs.KindGateway, "failed to parse transfer response")
	}
	idEl := doc.FindElement("//transferResponse/id")
	if idEl == nil {
		return "", errs.Gatewayf("no id in transfer response")
	}
	return idEl.Text(), nil
}

// GetTransfer fetches the current status of a submitted transfer.
func (c *Client) GetTransfer(ctx context.Context, externalID string) (*TransferDetails, error) {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<transferStatusRequest>
			<id>%s</id>
		</transferStatusRequest>`, externalID)

	resp, err := c.authedSend(ctx, "/transfers/status", body)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp); err != nil {
		return nil, errs.Wrap(err, errs.KindGateway, "failed to parse transfer status response")
	}
	statusEl := doc.FindElement("//transferStatus/status")
	if statusEl == nil {
		return nil, errs.Gatewayf("no status in transfer status response")
	}

	details := &TransferDetails{
		ExternalID: externalID,
		Status:     statusEl.Text(),
	}
	if amountEl := doc.FindElement("//transferStatus/amount"); amountEl != nil {
		fmt.Sscanf(amountEl.Text(), "%f", &details.Amount)
	}
	return details, nil
}

// authedSend sends a request under the cached token, refreshing it first.
func (c *Client) authedSend(ctx context.Context, path, body string) ([]byte, error) {
	if err := c.Authorize(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	return c.send(ctx, path, token, body)
}

// send posts an XML request to the processor
func (c *Client) send(ctx context.Context, path, token, body string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url+path, bytes.NewBufferString(body))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindGateway, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindGateway, "processor request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindGateway, "failed to read processor response")
	}

	// Log the raw XML response for debugging
	c.log.Debugf("Processor response %s: %s", path, string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Gatewayf("processor returned status %d: %s", resp.StatusCode, extractErrorMessage(raw))
	}
	return raw, nil
}

// extractErrorMessage pulls the message out of an error body when the
// processor sends one; error bodies are not interpreted beyond that.
func extractErrorMessage(raw []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "unreadable error body"
	}
	if msgEl := doc.FindElement("//error/message"); msgEl != nil {
		return msgEl.Text()
	}
	return "no error message"
}
