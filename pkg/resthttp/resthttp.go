package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var runOnce sync.Once
var restyClient *resty.Client

// Client shared resty client, retries transient failures twice
func Client() *resty.Client {
	runOnce.Do(func() {
		restyClient = resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("Charset", "utf-8").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			})
	})

	return restyClient
}

// Request new resty request
func Request(ctx context.Context) *resty.Request {
	return Client().R().SetContext(ctx)
}

// StatusError non 2xx response
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Body)
}

// ParseResponse decodes a successful body into obj
func ParseResponse(r *resty.Response, obj interface{}) error {
	if !r.IsSuccess() {
		return &StatusError{Status: r.StatusCode(), Body: string(r.Body())}
	}

	if obj != nil {
		return json.Unmarshal(r.Body(), obj)
	}
	return nil
}
