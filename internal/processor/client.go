package processor

import (
	"bytes"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"github.com/maal/rinha-payment-worker/internal/models"
)

var submitCodec = jsoniter.ConfigFastest

// Outcome classifies the result of a Submit call per §6.2/§7 of
// SPEC_FULL.md.
type Outcome int

const (
	Rejected Outcome = iota
	Accepted
)

const (
	probePath  = "/payments/service-health"
	submitPath = "/payments"

	acceptedPhrase   = "payment processed successfully"
	replayPhraseLower = "correlationid already exists"
)

// Client is a two-endpoint HTTP caller with a shared, connection-pooled
// fasthttp.Client and per-call deadlines. It replaces the teacher's
// http.Client + custom http.Transport with the fasthttp stack already
// present in the teacher's go.mod, used here as an outbound client
// instead of only as an inbound server.
type Client struct {
	defaultBaseURL  string
	fallbackBaseURL string
	http            *fasthttp.Client
	probeTimeout    time.Duration
	submitTimeout   time.Duration
}

// Config carries the two base URLs; timeouts are fixed by §4.2.
type Config struct {
	DefaultBaseURL  string
	FallbackBaseURL string
}

func New(cfg Config) *Client {
	return &Client{
		defaultBaseURL:  strings.TrimSuffix(cfg.DefaultBaseURL, "/"),
		fallbackBaseURL: strings.TrimSuffix(cfg.FallbackBaseURL, "/"),
		http: &fasthttp.Client{
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
		},
		probeTimeout:  4 * time.Second,
		submitTimeout: 10 * time.Second,
	}
}

func (c *Client) baseURL(t models.ProcessorType) string {
	if t == models.ProcessorFallback {
		return c.fallbackBaseURL
	}
	return c.defaultBaseURL
}

// Probe calls GET {base}/payments/service-health. It returns
// (view, true) on a 2xx with a decodable body, and (HealthView{},
// false) on 429, any other non-2xx, a decode failure, or a
// timeout/transport error — per §4.2, none of those are reported as Go
// errors because the caller's only reaction to any of them is "no
// fresh opinion".
func (c *Client) Probe(processorType models.ProcessorType) (models.HealthView, bool) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL(processorType) + probePath)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.http.DoTimeout(req, resp, c.probeTimeout); err != nil {
		return models.HealthView{}, false
	}

	if status := resp.StatusCode(); status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return models.HealthView{}, false
	}

	view, err := models.DecodeHealthView(resp.Body())
	if err != nil {
		return models.HealthView{}, false
	}
	view.LastCheckedAt = time.Now().UTC()
	return view, true
}

type submitRequest struct {
	CorrelationID string          `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   string          `json:"requestedAt"`
}

// Submit calls POST {base}/payments with the wire body required by
// §4.2 and classifies the response into Accepted/Rejected, folding the
// idempotent-replay case (422 + known phrase) into Accepted.
func (c *Client) Submit(processorType models.ProcessorType, payment models.Payment) Outcome {
	body := submitRequest{
		CorrelationID: payment.CorrelationID.String(),
		Amount:        payment.Amount.Round(2),
		RequestedAt:   payment.RequestedAt.UTC().Format(time.RFC3339),
	}
	// The wire body for Submit is a different shape than the stored
	// Payment (no status/retryCount/processorType), so it is marshalled
	// on its own rather than through models.EncodePayment.
	raw, err := submitCodec.Marshal(body)
	if err != nil {
		return Rejected
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL(processorType) + submitPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(raw)

	if err := c.http.DoTimeout(req, resp, c.submitTimeout); err != nil {
		return Rejected
	}

	status := resp.StatusCode()
	responseBody := resp.Body()

	switch {
	case status == fasthttp.StatusOK && bytes.Contains(responseBody, []byte(acceptedPhrase)):
		return Accepted
	case status == fasthttp.StatusUnprocessableEntity && strings.Contains(strings.ToLower(string(responseBody)), replayPhraseLower):
		return Accepted
	default:
		return Rejected
	}
}

