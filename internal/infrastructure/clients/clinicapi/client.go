package clinicapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
	"github.com/zatekoja/patientportal/pkg/retry"
)

const maxBodyBytes = 4 << 20

// Options tunes the HTTP client
type Options struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	RetryAttempts  int
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Metrics    *observability.Metrics
}

// HTTPClient talks to the clinic REST API
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
	validate   *validator.Validate
	metrics    *observability.Metrics
}

var _ providers.ClinicAPI = (*HTTPClient)(nil)

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	retryCfg := retry.DefaultConfig()
	if opts.RetryAttempts > 0 {
		retryCfg.MaxAttempts = opts.RetryAttempts
	}
	retryCfg.Retryable = isRetryable

	return &HTTPClient{
		baseURL:    parsed,
		httpClient: httpClient,
		limiter:    limiter,
		retryCfg:   retryCfg,
		validate:   validator.New(),
		metrics:    opts.Metrics,
	}, nil
}

// Login exchanges credentials for an access token. Every failure is
// reported as an authentication error.
func (c *HTTPClient) Login(ctx context.Context, login, password string) (string, error) {
	raw, err := c.send(ctx, request{
		op:     "Login",
		method: http.MethodPost,
		route:  "login",
		path:   "login",
		body:   loginRequest{Login: login, Password: password},
	})
	if err != nil {
		return "", apperrors.NewAuthenticationError("login failed", err)
	}

	var data loginData
	if err := c.decode(raw, &data); err != nil {
		return "", apperrors.NewAuthenticationError("login failed", err)
	}
	return *data.AccessToken, nil
}

// Logout invalidates token on the server
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.send(ctx, request{
		op:     "Logout",
		method: http.MethodPost,
		route:  "logout",
		path:   "logout",
		token:  token,
		body:   struct{}{},
		noData: true,
	})
	return err
}

// ListDoctors returns the doctor roster
func (c *HTTPClient) ListDoctors(ctx context.Context, token string) ([]entities.Doctor, error) {
	raw, err := c.send(ctx, request{
		op:     "ListDoctors",
		method: http.MethodGet,
		route:  "medics",
		path:   "medics",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeList[doctorDTO](c, raw)
	if err != nil {
		return nil, err
	}
	doctors := make([]entities.Doctor, 0, len(items))
	for _, item := range items {
		doctors = append(doctors, item.toEntity())
	}
	return doctors, nil
}

// ListVisits returns the patient's visits in server order
func (c *HTTPClient) ListVisits(ctx context.Context, token string) ([]entities.Visit, error) {
	raw, err := c.send(ctx, request{
		op:     "ListVisits",
		method: http.MethodGet,
		route:  "myvisits",
		path:   "myvisits",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeList[visitDTO](c, raw)
	if err != nil {
		return nil, err
	}
	visits := make([]entities.Visit, 0, len(items))
	for _, item := range items {
		visits = append(visits, item.toEntity())
	}
	return visits, nil
}

// GetVisit returns one visit with its recommendations
func (c *HTTPClient) GetVisit(ctx context.Context, token string, id int) (*entities.VisitDetail, error) {
	raw, err := c.send(ctx, request{
		op:     "GetVisit",
		method: http.MethodGet,
		route:  "myvisits/{id}",
		path:   "myvisits/" + strconv.Itoa(id),
		token:  token,
	})
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) || (err == nil && isNull(raw)) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("Visit %d was not found.", id))
	}
	if err != nil {
		return nil, err
	}

	var data visitDetailDTO
	if err := c.decode(raw, &data); err != nil {
		return nil, err
	}
	detail := data.toEntity()
	return &detail, nil
}

// CreateVisit books an appointment and returns the server's confirmation
func (c *HTTPClient) CreateVisit(ctx context.Context, token string, req entities.AppointmentRequest) (*entities.BookingConfirmation, error) {
	raw, err := c.send(ctx, request{
		op:     "CreateVisit",
		method: http.MethodPost,
		route:  "myvisits",
		path:   "myvisits",
		token:  token,
		body:   req,
	})
	if err != nil {
		return nil, err
	}

	var data confirmationDTO
	if err := c.decode(raw, &data); err != nil {
		return nil, err
	}
	return &entities.BookingConfirmation{Message: *data.Message}, nil
}

// GetProfile returns the patient's profile
func (c *HTTPClient) GetProfile(ctx context.Context, token string) (*entities.Profile, error) {
	raw, err := c.send(ctx, request{
		op:     "GetProfile",
		method: http.MethodGet,
		route:  "update",
		path:   "update",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	var data profileDTO
	if err := c.decode(raw, &data); err != nil {
		return nil, err
	}
	profile := data.toEntity()
	return &profile, nil
}

// UpdateProfile saves profile changes. The server echoes the stored profile;
// when it only acknowledges, the submitted values are returned.
func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, id int, update entities.ProfileUpdate) (*entities.Profile, error) {
	raw, err := c.send(ctx, request{
		op:     "UpdateProfile",
		method: http.MethodPatch,
		route:  "update/{id}",
		path:   "update/" + strconv.Itoa(id),
		token:  token,
		body:   update,
		noData: true,
	})
	if err != nil {
		return nil, err
	}

	if !isNull(raw) {
		var data profileDTO
		if err := c.decode(raw, &data); err == nil {
			profile := data.toEntity()
			return &profile, nil
		}
	}
	return &entities.Profile{
		ID:        id,
		Name:      update.Name,
		Surname:   update.Surname,
		Address:   update.Address,
		Passport:  update.Passport,
		Telephone: update.Telephone,
		Login:     update.Login,
	}, nil
}

type request struct {
	op     string
	method string
	route  string
	path   string
	token  string
	body   interface{}
	// noData accepts a 2xx response without a data envelope
	noData bool
}

// send performs the request and returns the raw "data" payload. GETs are
// retried on network errors and 5xx responses.
func (c *HTTPClient) send(ctx context.Context, req request) (json.RawMessage, error) {
	ctx, span := observability.StartSpan(ctx, "clinicapi."+req.op)
	defer span.End()

	var payload []byte
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, apperrors.NewInternalError("encode request", err)
		}
		payload = encoded
	}

	var data json.RawMessage
	attempt := func() error {
		raw, err := c.do(ctx, req, payload)
		if err != nil {
			return err
		}
		data = raw
		return nil
	}

	var err error
	if req.method == http.MethodGet {
		err = retry.DoWithLog(ctx, c.retryCfg, attempt, func(n int, err error, next time.Duration) {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("route", req.route).
				Int("attempt", n).
				Dur("retry_in", next).
				Msg("clinic api request failed, retrying")
		})
	} else {
		err = attempt()
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return data, nil
}

func (c *HTTPClient) do(ctx context.Context, req request, payload []byte) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransportError("request not sent", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL.JoinPath(req.path).String(), body)
	if err != nil {
		return nil, apperrors.NewInternalError("build request", err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordRequestMetric(ctx, c.metrics, req.method, req.route, 0, time.Since(start))
		return nil, apperrors.NewTransportError(fmt.Sprintf("%s %s", req.method, req.route), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	observability.RecordRequestMetric(ctx, c.metrics, req.method, req.route, resp.StatusCode, elapsed)
	observability.LoggerFromContext(ctx).Debug().
		Str("method", req.method).
		Str("route", req.route).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Str("request_id", requestID).
		Msg("clinic api request")
	if err != nil {
		return nil, apperrors.NewTransportError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(req, resp.StatusCode, raw)
	}

	if req.noData && len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if req.noData {
			return nil, nil
		}
		return nil, apperrors.NewTransportError("malformed response", err)
	}
	if len(env.Data) == 0 && !req.noData {
		return nil, apperrors.NewTransportError("malformed response", errors.New(`missing "data"`))
	}
	return env.Data, nil
}

func (c *HTTPClient) statusError(req request, status int, raw []byte) error {
	var env envelope
	_ = json.Unmarshal(raw, &env)
	serverMsg := strings.TrimSpace(env.Message)
	cause := &StatusError{StatusCode: status, Message: serverMsg}

	switch {
	case (status == http.StatusUnauthorized || status == http.StatusForbidden) && req.token != "":
		return &apperrors.AppError{Type: apperrors.ErrorTypeUnauthenticated, Message: "session expired", Err: cause}
	case status == http.StatusNotFound:
		return &apperrors.AppError{Type: apperrors.ErrorTypeNotFound, Message: fmt.Sprintf("%s not found", req.route), Err: cause}
	case status == http.StatusUnprocessableEntity:
		msg := serverMsg
		if msg == "" {
			msg = "request rejected by the clinic"
		}
		return &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: msg, Err: cause}
	default:
		return apperrors.NewTransportError(fmt.Sprintf("%s %s", req.method, req.route), cause)
	}
}

func (c *HTTPClient) decode(raw json.RawMessage, out interface{}) error {
	if isNull(raw) {
		return apperrors.NewTransportError("malformed response", errors.New("data is null"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewTransportError("malformed response", err)
	}
	if err := c.validate.Struct(out); err != nil {
		return apperrors.NewTransportError("malformed response", err)
	}
	return nil
}

func decodeList[T any](c *HTTPClient, raw json.RawMessage) ([]T, error) {
	if isNull(raw) {
		return nil, apperrors.NewTransportError("malformed response", errors.New("data is null"))
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.NewTransportError("malformed response", err)
	}
	for i := range items {
		if err := c.validate.Struct(&items[i]); err != nil {
			return nil, apperrors.NewTransportError(fmt.Sprintf("malformed response item %d", i), err)
		}
	}
	return items, nil
}

// StatusError is a non-2xx response
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clinic api returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clinic api returned status %d", e.StatusCode)
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
