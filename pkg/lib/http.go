package lib

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultClientTimeout = 10 * time.Second

var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 10,
	},
	Timeout: defaultClientTimeout,
}

var BuildVersion = "dev"

var UserAgentString = "PocketMortys/" + BuildVersion + " +https://github.com/Vichigato-yt/pocketmortysprueba"

// StatusError is returned when a server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s, response: %s", e.StatusCode, e.URL, e.Body)
}

type RequestDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// DecodeJSONFromRequest executes the request and decodes a JSON body into T.
// Non-200 responses are reported as *StatusError with a truncated body.
func DecodeJSONFromRequest[T any](client RequestDoer, request *http.Request) (T, error) {
	var result T

	response, err := client.Do(request)
	if err != nil {
		return result, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		truncatedBody, _ := LimitStringLength(string(body), 256)

		return result, &StatusError{
			StatusCode: response.StatusCode,
			URL:        request.URL.String(),
			Body:       truncatedBody,
		}
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("decode json: %w", err)
	}

	return result, nil
}

func LimitStringLength(s string, max int) (string, bool) {
	asRunes := []rune(s)

	if len(asRunes) > max {
		return string(asRunes[:max]), true
	}

	return s, false
}
