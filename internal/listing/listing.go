package listing

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "http://localhost:8000"
	userAgent = "spigell/skill-navigator"
	// Max value for limit accepted by the listing endpoint.
	maxLimit        = 100
	defaultMaxPages = 5
	listingTimeout  = 10 * time.Second
)

// Client talks to the upstream job-listing API.
//
// Listing and auto-apply requests share HTTPClient, which carries a 10s
// timeout. Stats requests go through StatsClient, which has none.
type Client struct {
	token       string
	logger      *zap.Logger
	HTTPClient  *http.Client
	StatsClient *http.Client
	UserAgent   string
	APIURL      string
	MaxPages    int
}

func New(logger *zap.Logger, baseURL, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = apiURL
	}

	return &Client{
		token:  token,
		APIURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: listingTimeout,
		},
		StatsClient: &http.Client{},
		logger:      logger,
		UserAgent:   userAgent,
		MaxPages:    defaultMaxPages,
	}
}
