package ai

import (
	"Relay/core"
	"Relay/lib/sl"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	searchErrorReply       = "⚠️ خطا در انجام جستجو."
	searchUnavailableReply = "⚠️ سرویس جستجو موقتاً در دسترس نیست.\n\n💡 لطفاً کمی بعد تلاش کنید."
)

// zeroClick is the part of the DuckDuckGo instant answer we read.
type zeroClick struct {
	AbstractText  string         `json:"AbstractText"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type Search struct {
	conf       core.Search
	log        *slog.Logger
	httpClient *http.Client
}

func NewSearch(conf core.Search, log *slog.Logger) *Search {
	return &Search{
		conf: conf,
		log:  log.With(sl.Module("search")),
		httpClient: &http.Client{
			Timeout: conf.Timeout,
		},
	}
}

func (s *Search) Invoke(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()

	answer, status, err := s.fetch(ctx, query)
	if err != nil {
		s.log.Warn("search failed", sl.Err(err))
		return fallbackResult(searchUnavailableReply, err)
	}
	if status != http.StatusOK {
		s.log.Warn("search returned status", slog.Int("status", status))
		return fallbackResult(searchErrorReply, fmt.Errorf("search status %d", status))
	}
	return textResult(s.format(query, answer))
}

func (s *Search) fetch(ctx context.Context, query string) (*zeroClick, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.conf.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("making request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("getting response: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			s.log.Warn("closing body", sl.Err(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var answer zeroClick
	if err = json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return &answer, resp.StatusCode, nil
}

func (s *Search) format(query string, answer *zeroClick) string {
	if answer.AbstractText != "" {
		abstract := truncateRunes(answer.AbstractText, s.conf.AbstractLimit)
		return fmt.Sprintf("🔍 **نتایج جستجو برای '%s':**\n\n%s", query, abstract)
	}

	var lines []string
	for _, topic := range answer.RelatedTopics {
		if len(lines) >= s.conf.MaxTopics {
			break
		}
		switch {
		case topic.Text != "":
			lines = append(lines, "• "+truncateRunes(topic.Text, s.conf.TopicLimit))
		case topic.FirstURL != "":
			lines = append(lines, "• "+topic.FirstURL)
		}
	}
	if len(lines) > 0 {
		return fmt.Sprintf("🔍 **موضوعات مرتبط با '%s':**\n\n%s\n", query, strings.Join(lines, "\n"))
	}

	return fmt.Sprintf("❌ هیچ نتیجه‌ای برای '%s' یافت نشد.\n\n💡 سوال خود را به صورت متفاوت بیان کنید.", query)
}
