package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gorilla/mux"
	"github.com/sym01/htmlsanitizer"

	apierrs "github.com/jdholdren/touchline/internal/errors"
	"github.com/jdholdren/touchline/internal/serverutil"
	"github.com/jdholdren/touchline/internal/touchline"
)

type ArticleResp struct {
	ID            int64      `json:"id"`
	GUID          string     `json:"guid"`
	Source        string     `json:"source"`
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	PubDate       *time.Time `json:"pub_date"`
	Description   string     `json:"description"`
	RawContent    *string    `json:"raw_content"`
	Summary       *string    `json:"summary"`
	Category      *string    `json:"category"`
	Status        string     `json:"status"`
	FailureReason *string    `json:"failure_reason"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func apiArticle(a touchline.Article) ArticleResp {
	var category, reason *string
	if a.Category != nil {
		c := string(*a.Category)
		category = &c
	}
	if a.FailureReason != nil {
		r := string(*a.FailureReason)
		reason = &r
	}

	return ArticleResp{
		ID:            a.ID,
		GUID:          a.GUID,
		Source:        a.Source,
		Title:         a.Title,
		Link:          a.Link,
		PubDate:       a.PubDate,
		Description:   a.Description,
		RawContent:    a.RawContent,
		Summary:       a.Summary,
		Category:      category,
		Status:        string(a.Status),
		FailureReason: reason,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type HealthResp struct {
	Status   string `json:"status"`
	DB       bool   `json:"db"`
	Articles int    `json:"articles"`
}

func (s Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.repo.Stats(r.Context())
	if err != nil {
		return fmt.Errorf("error checking store: %w", err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, HealthResp{
		Status:   "ok",
		DB:       true,
		Articles: stats.Total,
	})
}

type ArticleListResp struct {
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Data   []ArticleResp `json:"data"`
}

func (s Server) getArticles(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx   = r.Context()
		query = r.URL.Query()
	)

	limit, offset, details := parsePaginationParams(r)

	var filter touchline.ArticleFilter
	if raw := query.Get("category"); raw != "" {
		c, ok := touchline.ParseCategory(raw)
		if !ok {
			details = append(details, apierrs.Detail{Field: "category", Error: "unknown category"})
		}
		filter.Category = c
	}
	if raw := query.Get("status"); raw != "" {
		st := touchline.Status(raw)
		if !st.Valid() {
			details = append(details, apierrs.Detail{Field: "status", Error: "must be one of pending, summarized, failed"})
		}
		filter.Status = st
	}
	if len(details) > 0 {
		return apierrs.E("invalid query", http.StatusBadRequest, details)
	}

	filter.Limit = uint64(limit)
	filter.Offset = uint64(offset)
	articles, err := s.repo.QueryArticles(ctx, filter)
	if err != nil {
		return err
	}

	data := make([]ArticleResp, 0, len(articles))
	for _, a := range articles {
		data = append(data, apiArticle(a))
	}

	return serverutil.WriteJSON(w, http.StatusOK, ArticleListResp{
		Count:  len(data),
		Limit:  limit,
		Offset: offset,
		Data:   data,
	})
}

// Looks up the article named in the path, turning a miss into a 404.
func (s Server) article(r *http.Request) (touchline.Article, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["articleID"], 10, 64)
	if err != nil {
		return touchline.Article{}, apierrs.E("invalid article id", http.StatusBadRequest)
	}

	a, err := s.repo.Article(r.Context(), id)
	if errors.Is(err, touchline.ErrNotFound) {
		return touchline.Article{}, apierrs.E("article not found", http.StatusNotFound)
	}
	if err != nil {
		return touchline.Article{}, err
	}

	return a, nil
}

func (s Server) getArticle(w http.ResponseWriter, r *http.Request) error {
	a, err := s.article(r)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiArticle(a))
}

type ReaderResp struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	ReaderContent string `json:"reader_content"`
}

func (s Server) getReader(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	a, err := s.article(r)
	if err != nil {
		return err
	}

	// Cache results for less processing and prevent refetches
	if resp, ok := s.readerCache.Get(a.ID); ok {
		return serverutil.WriteJSON(w, http.StatusOK, resp)
	}

	u, err := url.Parse(a.Link)
	if err != nil {
		return apierrs.E(fmt.Errorf("article has a bad link: %s", err), http.StatusUnprocessableEntity)
	}

	// Fetch the actual site
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Link, nil)
	if err != nil {
		return fmt.Errorf("error building request: %s", err)
	}
	req.Header.Set("User-Agent", touchline.UserAgent)
	req.Header.Set("Accept", "text/html")
	resp, err := s.fetchClient.Do(req)
	if err != nil {
		return apierrs.E(fmt.Errorf("error fetching article: %s", err), http.StatusBadGateway)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierrs.E(fmt.Sprintf("article returned status %d", resp.StatusCode), http.StatusBadGateway)
	}

	// Strip it for readability and sanitize
	parser := readability.NewParser()
	article, err := parser.Parse(resp.Body, u)
	if err != nil {
		return apierrs.E(fmt.Errorf("error making article readable: %s", err), http.StatusUnprocessableEntity)
	}

	santizer := htmlsanitizer.NewHTMLSanitizer()
	contents, err := santizer.SanitizeString(article.Content)
	if err != nil {
		return err
	}

	ret := ReaderResp{
		ID:            a.ID,
		Title:         a.Title,
		URL:           a.Link,
		ReaderContent: contents,
	}
	// Add to the cache for next time
	s.readerCache.Add(a.ID, ret)

	return serverutil.WriteJSON(w, http.StatusOK, ret)
}

func (s Server) getStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.repo.Stats(r.Context())
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, stats)
}

type CategoriesResp struct {
	Categories []touchline.Category `json:"categories"`
}

func (s Server) getCategories(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, CategoriesResp{Categories: touchline.Categories})
}
