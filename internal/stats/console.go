package stats

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Telemetry keys exposed by the console's stats page.
const (
	KeyCPUTemp   = "cpu_temp"
	KeySOCTemp   = "soc_temp"
	KeyFrequency = "frequency"
)

// Placeholder values reported when a reading is unavailable.
const (
	ValueUnavailable = "N/A"
	ValueTimeout     = "Timeout"
	ValueConnError   = "Err Conn"
)

// consoleLabels maps the stats page's display labels to telemetry keys.
var consoleLabels = map[string]string{
	"CPU Temp":  KeyCPUTemp,
	"SoC Temp":  KeySOCTemp,
	"Frequency": KeyFrequency,
}

const defaultConsoleTimeout = 5 * time.Second

// ConsoleProvider scrapes the console's built-in stats web page
// (label/value pairs rendered as adjacent divs).
type ConsoleProvider struct {
	url    string
	client *http.Client
}

func NewConsoleProvider(url string, timeout time.Duration) *ConsoleProvider {
	if timeout <= 0 {
		timeout = defaultConsoleTimeout
	}
	return &ConsoleProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *ConsoleProvider) Name() string { return "console" }

// Poll fetches and parses the stats page. Transport failures degrade to
// placeholder values; they are an expected condition (console off,
// stats server disabled), not an error.
func (p *ConsoleProvider) Poll(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return placeholderValues(ValueTimeout), nil
		}
		return placeholderValues(ValueConnError), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return placeholderValues(ValueConnError), nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return placeholderValues(ValueConnError), nil
	}

	values := placeholderValues(ValueUnavailable)
	doc.Find("div.info-label").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		key, ok := consoleLabels[label]
		if !ok {
			return
		}
		next := s.Next()
		if !next.HasClass("info-value") {
			return
		}
		if v := strings.TrimSpace(next.Text()); v != "" {
			values[key] = v
		}
	})
	return values, nil
}

func placeholderValues(v string) map[string]string {
	values := make(map[string]string, len(consoleLabels))
	for _, key := range consoleLabels {
		values[key] = v
	}
	return values
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
