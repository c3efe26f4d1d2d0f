// Package adminclient предоставляет клиент административного API заявок на бета-тест.
package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
)

var (
	// ErrUnauthorized возвращается, когда сервер требует учётные данные.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden возвращается при неверных учётных данных.
	ErrForbidden = errors.New("invalid credentials")
)

// Client инкапсулирует HTTP-взаимодействие с API заявок.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *retryablehttp.Client
}

type signupsResponse struct {
	OK      bool           `json:"ok"`
	Total   int            `json:"total"`
	Signups []model.Signup `json:"signups"`
	Error   string         `json:"error"`
}

// NewClient создаёт клиент для сервера по указанному адресу. Ошибки 5xx и сбои соединения повторяются.
func NewClient(baseURL, user, password string, logger *zap.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = leveledLogger{logger.Sugar()}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       user,
		password:   password,
		httpClient: rc,
	}
}

// ListSignups запрашивает все заявки.
func (c *Client) ListSignups(ctx context.Context) ([]model.Signup, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("admin client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, base+"/api/signups", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden:
		return nil, ErrForbidden
	}

	var result signupsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error == "" {
			result.Error = "Could not load signups"
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, result.Error)
	}

	if result.Signups == nil {
		return []model.Signup{}, nil
	}
	return result.Signups, nil
}

// SortNewestFirst упорядочивает заявки от новых к старым по createdAt.
// Заявки с неразборчивой датой оказываются в конце.
func SortNewestFirst(signups []model.Signup) []model.Signup {
	type dated struct {
		s  model.Signup
		at time.Time
	}

	items := make([]dated, 0, len(signups))
	for _, s := range signups {
		at, err := dateparse.ParseIn(s.CreatedAt, time.UTC)
		if err != nil {
			at = time.Time{}
		}
		items = append(items, dated{s: s, at: at})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	out := make([]model.Signup, 0, len(items))
	for _, it := range items {
		out = append(out, it.s)
	}
	return out
}

// leveledLogger передаёт журнал повторов в zap.
type leveledLogger struct {
	sugar *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
