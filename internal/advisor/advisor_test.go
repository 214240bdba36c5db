package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

func ptr[T any](v T) *T { return &v }

// A zig-zag day in Lisbon: Belém sits far west of the other three.
func lisbonDay() []models.TripItem {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	mk := func(id, title string, lat, lng float64, hour int) models.TripItem {
		start := day.Add(time.Duration(hour) * time.Hour)
		return models.TripItem{ID: id, Title: title, ItemType: models.ItemActivity,
			Latitude: ptr(lat), Longitude: ptr(lng), StartAt: &start}
	}
	return []models.TripItem{
		mk("alfama", "Alfama", 38.7139, -9.1334, 0),
		mk("belem", "Belém", 38.6979, -9.2068, 1),
		mk("baixa", "Baixa", 38.7107, -9.1366, 2),
		mk("chiado", "Chiado", 38.7106, -9.1424, 3),
	}
}

func requestFor(items []models.TripItem) Request {
	req := Request{DayDate: models.MustParseDate("2025-06-10")}
	for _, it := range items {
		req.Items = append(req.Items, ItemFromTripItem(it))
	}
	return req
}

func TestEstimate(t *testing.T) {
	stops := Stops(requestFor(lisbonDay()).Items)

	same, err := Estimate(stops, []string{"alfama", "belem", "baixa", "chiado"})
	require.NoError(t, err)
	assert.Equal(t, models.Savings{}, same)

	better, err := Estimate(stops, []string{"alfama", "baixa", "chiado", "belem"})
	require.NoError(t, err)
	assert.Greater(t, better.DistanceKm, 1.0)
	assert.Greater(t, better.TimeMinutes, 0.0)

	for _, bad := range [][]string{
		{"alfama", "belem", "baixa"},
		{"alfama", "belem", "baixa", "baixa"},
		{"alfama", "belem", "baixa", "rossio"},
	} {
		_, err := Estimate(stops, bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestNearestNeighbor(t *testing.T) {
	got, err := NearestNeighbor{}.Suggest(context.Background(), requestFor(lisbonDay()))
	require.NoError(t, err)
	assert.Equal(t, []string{"alfama", "baixa", "chiado", "belem"}, got.OptimizedOrder)
	assert.Greater(t, got.Savings.DistanceKm, 0.0)
	assert.Contains(t, got.Explanation, "Alfama")
}

func TestNearestNeighborKeepsGoodOrder(t *testing.T) {
	items := lisbonDay()
	items[1], items[3] = items[3], items[1] // alfama, chiado, baixa, belem
	items[1], items[2] = items[2], items[1] // alfama, baixa, chiado, belem

	got, err := NearestNeighbor{}.Suggest(context.Background(), requestFor(items))
	require.NoError(t, err)
	assert.Equal(t, []string{"alfama", "baixa", "chiado", "belem"}, got.OptimizedOrder)
	assert.Zero(t, got.Savings.DistanceKm)
}

func TestNearestNeighborNeedsCoordinates(t *testing.T) {
	_, err := NearestNeighbor{}.Suggest(context.Background(), Request{Items: []Item{{ID: "x"}, {ID: "y"}}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

// optimizer is a fake suggestion provider.
type optimizer struct {
	hits   atomic.Int32
	last   Request
	auth   string
	status int
	body   string
}

func (o *optimizer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.hits.Add(1)
	o.auth = r.Header.Get("Authorization")
	_ = json.NewDecoder(r.Body).Decode(&o.last)
	if o.status != 0 {
		w.WriteHeader(o.status)
	}
	if o.body != "" {
		w.Write([]byte(o.body))
		return
	}
	ids := make([]string, len(o.last.Items))
	for i, it := range o.last.Items {
		ids[len(ids)-1-i] = it.ID
	}
	json.NewEncoder(w).Encode(models.OptimizationSuggestion{
		OptimizedOrder: ids,
		Explanation:    "reversed",
		Savings:        models.Savings{DistanceKm: 1.5, TimeMinutes: 4},
	})
}

func newTestClient(t *testing.T, o *optimizer) *Client {
	srv := httptest.NewServer(o)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/route-optimizer", "tok")
}

func TestSuggestOrderSkipsSmallDays(t *testing.T) {
	o := &optimizer{}
	c := newTestClient(t, o)
	day := models.MustParseDate("2025-06-10")

	got, err := c.SuggestOrder(context.Background(), nil, day)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.SuggestOrder(context.Background(), lisbonDay()[:1], day)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// two items but only one geocoded
	items := lisbonDay()[:2]
	items[1].Latitude, items[1].Longitude = nil, nil
	got, err = c.SuggestOrder(context.Background(), items, day)
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.Zero(t, o.hits.Load())
}

func TestSuggestOrderNeedsCoordinates(t *testing.T) {
	o := &optimizer{}
	c := newTestClient(t, o)

	items := []models.TripItem{{ID: "a", Title: "Note"}, {ID: "b", Title: "Null island", Latitude: ptr(0.0), Longitude: ptr(0.0)}}
	_, err := c.SuggestOrder(context.Background(), items, models.MustParseDate("2025-06-10"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, o.hits.Load())
}

func TestSuggestOrderSendsSortedLocatedItems(t *testing.T) {
	o := &optimizer{}
	c := newTestClient(t, o)

	items := lisbonDay()
	items[0], items[3] = items[3], items[0]
	items = append(items, models.TripItem{ID: "memo", Title: "Pack"})

	got, err := c.SuggestOrder(context.Background(), items, models.MustParseDate("2025-06-10"))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Bearer tok", o.auth)
	assert.Equal(t, "2025-06-10", o.last.DayDate.String())
	require.Len(t, o.last.Items, 4)
	assert.Equal(t, "alfama", o.last.Items[0].ID)
	assert.Equal(t, "chiado", o.last.Items[3].ID)

	assert.Equal(t, []string{"chiado", "baixa", "belem", "alfama"}, got.OptimizedOrder)
	// walking the same path backwards saves nothing, whatever the provider claims
	assert.Zero(t, got.Savings.DistanceKm)
	assert.Zero(t, got.Savings.TimeMinutes)
}

func TestSuggestOrderRecomputesSavings(t *testing.T) {
	o := &optimizer{body: `{"optimizedOrder":["alfama","baixa","chiado","belem"],
		"explanation":"Belém last","savings":{"distanceKm":999,"timeMinutes":-5}}`}
	got, err := newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), models.MustParseDate("2025-06-10"))
	require.NoError(t, err)
	require.NotNil(t, got)

	want, err := Estimate(Stops(requestFor(lisbonDay()).Items), got.OptimizedOrder)
	require.NoError(t, err)
	assert.Equal(t, want, got.Savings)
	assert.Greater(t, got.Savings.DistanceKm, 0.0)
	assert.Less(t, got.Savings.DistanceKm, 999.0)
	assert.Equal(t, "Belém last", got.Explanation)
}

func TestSuggestOrderProviderOutcomes(t *testing.T) {
	day := models.MustParseDate("2025-06-10")

	o := &optimizer{status: http.StatusTooManyRequests, body: `{"error":"slow down"}`}
	_, err := newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), day)
	var rl *apperr.RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "try again later", rl.Message)

	o = &optimizer{status: http.StatusPaymentRequired, body: `{}`}
	_, err = newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), day)
	var qe *apperr.QuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "service quota exhausted", qe.Message)

	o = &optimizer{status: http.StatusInternalServerError, body: `{"error":{"message":"model offline"}}`}
	_, err = newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), day)
	var oe *apperr.OptimizerError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, http.StatusInternalServerError, oe.Status)
	assert.Equal(t, "model offline", oe.Message)

	o = &optimizer{body: `{"optimizedOrder":["alfama","alfama","baixa","chiado"]}`}
	_, err = newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), day)
	assert.True(t, errors.Is(err, apperr.ErrOptimizer), "not a permutation")

	o = &optimizer{body: `not json`}
	_, err = newTestClient(t, o).SuggestOrder(context.Background(), lisbonDay(), day)
	assert.True(t, errors.Is(err, apperr.ErrOptimizer))
}

// fakeOpenAI serves /chat/completions with a canned assistant message.
func fakeOpenAI(t *testing.T, status int, body string) (*OpenAI, *atomic.Int32) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewOpenAI("test-key", "", srv.URL+"/v1/"), &hits
}

func completion(content string) string {
	quoted, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1718000000,"model":"gpt-4o-mini",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}]}`, quoted)
}

func TestOpenAISuggest(t *testing.T) {
	answer := "```json\n{\"optimizedOrder\":[\"alfama\",\"baixa\",\"chiado\",\"belem\"],\"explanation\":\" Finish in Belém. \",\"savings\":{\"distanceKm\":99}}\n```"
	provider, hits := fakeOpenAI(t, http.StatusOK, completion(answer))

	got, err := provider.Suggest(context.Background(), requestFor(lisbonDay()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []string{"alfama", "baixa", "chiado", "belem"}, got.OptimizedOrder)
	assert.Equal(t, "Finish in Belém.", got.Explanation)
	assert.Less(t, got.Savings.DistanceKm, 99.0, "savings are recomputed")
	assert.Greater(t, got.Savings.DistanceKm, 0.0)
}

func TestOpenAIRejectsBadAnswers(t *testing.T) {
	for _, answer := range []string{
		"I would start at Alfama.",
		`{"optimizedOrder":["alfama","baixa"]}`,
		`{"explanation":"no order"}`,
	} {
		provider, _ := fakeOpenAI(t, http.StatusOK, completion(answer))
		_, err := provider.Suggest(context.Background(), requestFor(lisbonDay()))
		assert.True(t, errors.Is(err, apperr.ErrOptimizer), answer)
	}
}

func TestOpenAIErrorMapping(t *testing.T) {
	provider, hits := fakeOpenAI(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	_, err := provider.Suggest(context.Background(), requestFor(lisbonDay()))
	assert.True(t, errors.Is(err, apperr.ErrRateLimited))
	assert.Equal(t, int32(1), hits.Load(), "no retries")

	provider, _ = fakeOpenAI(t, http.StatusPaymentRequired, `{"error":{"message":"billing","type":"billing"}}`)
	_, err = provider.Suggest(context.Background(), requestFor(lisbonDay()))
	assert.True(t, errors.Is(err, apperr.ErrQuota))

	provider, _ = fakeOpenAI(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`)
	_, err = provider.Suggest(context.Background(), requestFor(lisbonDay()))
	var oe *apperr.OptimizerError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, http.StatusInternalServerError, oe.Status)
}
