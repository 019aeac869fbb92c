package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eyalcha/kan-program/internal/domain"
)

const (
	DefaultGuideEndpoint = "https://www.kan.org.il/tv-guide/tv_guidePrograms.ashx"
	DefaultFetchTimeout  = 10 * time.Second

	guideDayLayout = "02/01/2006"
)

// GuideFetcher interroge l'endpoint public du guide des programmes Kan.
// Un appel = une requête HTTP, sans retry.
type GuideFetcher struct {
	endpoint string
	timeout  time.Duration
	location *time.Location
	client   *http.Client
	// limiter est optionnel.
	limiter *FetchLimiter
}

func NewGuideFetcher() *GuideFetcher {
	return &GuideFetcher{
		endpoint: DefaultGuideEndpoint,
		timeout:  DefaultFetchTimeout,
		location: time.Local,
		client:   &http.Client{},
	}
}

func (f *GuideFetcher) WithEndpoint(endpoint string) *GuideFetcher {
	if strings.TrimSpace(endpoint) != "" {
		f.endpoint = strings.TrimSpace(endpoint)
	}
	return f
}

func (f *GuideFetcher) WithTimeout(timeout time.Duration) *GuideFetcher {
	if timeout > 0 {
		f.timeout = timeout
	}
	return f
}

// WithLocation fixe le fuseau des horaires du guide (ils arrivent sans offset).
func (f *GuideFetcher) WithLocation(loc *time.Location) *GuideFetcher {
	if loc != nil {
		f.location = loc
	}
	return f
}

func (f *GuideFetcher) WithLimiter(l *FetchLimiter) *GuideFetcher {
	f.limiter = l
	return f
}

func (f *GuideFetcher) Timeout() time.Duration { return f.timeout }

// URL construit l'adresse du guide pour une station et un jour.
func (f *GuideFetcher) URL(stationID string, day time.Time) string {
	return fmt.Sprintf("%s?stationID=%s&day=%s", f.endpoint, url.QueryEscape(stationID), day.In(f.location).Format(guideDayLayout))
}

func (f *GuideFetcher) Fetch(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Acquire(ctx); err != nil {
			return domain.GuidePayload{}, classifyTransport(err)
		}
		defer f.limiter.Release()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(stationID, day), nil)
	if err != nil {
		return domain.GuidePayload{}, &FetchError{Kind: FetchTransport, Message: "build request", Err: err}
	}
	// L'API répond en text/html alors que le corps est du JSON.
	httpReq.Header.Set("Accept", "application/json, text/html")
	httpReq.Header.Set("User-Agent", "kanprogram-server")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return domain.GuidePayload{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GuidePayload{}, classifyTransport(err)
	}
	if resp.StatusCode >= 400 {
		return domain.GuidePayload{}, &FetchError{Kind: FetchTransport, Message: "guide http error: " + resp.Status}
	}

	entries, err := f.parse(body)
	if err != nil {
		return domain.GuidePayload{}, err
	}
	return domain.GuidePayload{
		StationID: stationID,
		Day:       day,
		Entries:   entries,
		FetchedAt: time.Now(),
	}, nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: FetchTimeout, Message: "timed out getting guide", Err: err}
	}
	return &FetchError{Kind: FetchTransport, Err: err}
}

type guideProgram struct {
	Title         string        `json:"title"`
	StartTime     string        `json:"start_time"`
	EndTime       string        `json:"end_time"`
	LiveDesc      string        `json:"live_desc"`
	ChapterNumber chapterNumber `json:"chapter_number"`
}

type guideError struct {
	Error *struct {
		Info string `json:"info"`
	} `json:"error"`
}

// chapterNumber accepte un nombre, une chaîne numérique ou null.
type chapterNumber int

func (c *chapterNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*c = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid chapter_number %q", s)
	}
	*c = chapterNumber(n)
	return nil
}

func (f *GuideFetcher) parse(body []byte) ([]domain.ProgramEntry, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &FetchError{Kind: FetchMalformedPayload, Message: "empty body"}
	}

	switch body[0] {
	case '{':
		var ge guideError
		if err := json.Unmarshal(body, &ge); err != nil {
			return nil, &FetchError{Kind: FetchMalformedPayload, Err: err}
		}
		if ge.Error != nil {
			return nil, &FetchError{Kind: FetchUpstreamError, Message: ge.Error.Info}
		}
		return nil, &FetchError{Kind: FetchMalformedPayload, Message: "unexpected object payload"}
	case '[':
	default:
		return nil, &FetchError{Kind: FetchMalformedPayload, Message: "payload is not json"}
	}

	var raw []guideProgram
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FetchError{Kind: FetchMalformedPayload, Err: err}
	}

	entries := make([]domain.ProgramEntry, 0, len(raw))
	for i, p := range raw {
		start, err := time.ParseInLocation(domain.GuideTimeLayout, p.StartTime, f.location)
		if err != nil {
			return nil, &FetchError{Kind: FetchMalformedPayload, Message: fmt.Sprintf("entry %d start_time", i), Err: err}
		}
		end, err := time.ParseInLocation(domain.GuideTimeLayout, p.EndTime, f.location)
		if err != nil {
			return nil, &FetchError{Kind: FetchMalformedPayload, Message: fmt.Sprintf("entry %d end_time", i), Err: err}
		}
		entries = append(entries, domain.ProgramEntry{
			Title:         p.Title,
			StartTime:     start,
			EndTime:       end,
			Description:   p.LiveDesc,
			ChapterNumber: int(p.ChapterNumber),
		})
	}
	return entries, nil
}
