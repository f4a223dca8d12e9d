package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/mlviz/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	courses := Catalog()
	require.Len(t, courses, 10)
	for i, c := range courses {
		assert.Equal(t, i+1, c.Number)
		assert.Equal(t, lessonID(i+1), c.ID)
		if i < 4 {
			assert.Equal(t, StatusCompleted, c.Status)
			assert.True(t, c.Available())
		} else {
			assert.Equal(t, StatusComingSoon, c.Status)
			assert.False(t, c.Available())
		}
	}
	assert.Equal(t, 4, Completed())

	courses[0].Title = "changed"
	assert.NotEqual(t, "changed", Catalog()[0].Title)

	_, err := Find("lesson-42")
	assert.ErrorIs(t, err, ErrUnknownLesson)
	c, err := Find("lesson-03")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Number)
}

const singleQuiz = `{
  "question": "Which one is supervised?",
  "options": [
    {"id": "a", "text": "K-Means", "isCorrect": false},
    {"id": "b", "text": "Linear regression", "isCorrect": true},
    {"id": "c", "text": "PCA", "isCorrect": false}
  ],
  "explanation": "Regression learns from labelled targets."
}`

const multipleQuiz = `{
  "question": "Which are classifiers?",
  "type": "multiple",
  "options": [
    {"id": "a", "text": "SVM", "isCorrect": true},
    {"id": "b", "text": "KNN", "isCorrect": true},
    {"id": "c", "text": "Gradient descent", "isCorrect": false}
  ]
}`

func TestParseQuiz(t *testing.T) {
	q, err := ParseQuiz(singleQuiz)
	require.NoError(t, err)
	assert.Equal(t, Single, q.Type)
	assert.Equal(t, []string{"b"}, q.Correct())
	assert.NotEmpty(t, q.Explanation)

	q, err = ParseQuiz(multipleQuiz)
	require.NoError(t, err)
	assert.Equal(t, Multiple, q.Type)
	assert.Equal(t, []string{"a", "b"}, q.Correct())
}

func TestParseQuizErrors(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"question": `,
		"no question":     `{"options": [{"id": "a", "text": "x", "isCorrect": true}, {"id": "b", "text": "y"}]}`,
		"no options":      `{"question": "q"}`,
		"options object":  `{"question": "q", "options": {"id": "a"}}`,
		"one option":      `{"question": "q", "options": [{"id": "a", "text": "x", "isCorrect": true}]}`,
		"missing id":      `{"question": "q", "options": [{"text": "x", "isCorrect": true}, {"id": "b", "text": "y"}]}`,
		"bad type":        `{"question": "q", "type": "essay", "options": [{"id": "a", "text": "x", "isCorrect": true}, {"id": "b", "text": "y"}]}`,
		"duplicate ids":   `{"question": "q", "options": [{"id": "a", "text": "x", "isCorrect": true}, {"id": "a", "text": "y"}]}`,
		"nothing correct": `{"question": "q", "options": [{"id": "a", "text": "x"}, {"id": "b", "text": "y"}]}`,
		"single, two correct": `{"question": "q", "options": [
			{"id": "a", "text": "x", "isCorrect": true}, {"id": "b", "text": "y", "isCorrect": true}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuiz(raw)
			var qe *QuizError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, raw, qe.Raw)
		})
	}
}

func TestGrade(t *testing.T) {
	single, err := ParseQuiz(singleQuiz)
	require.NoError(t, err)
	res, err := single.Grade([]string{"b"})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = single.Grade([]string{"a"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, []string{"a"}, res.Wrong)
	assert.Equal(t, []string{"b"}, res.Missed)

	_, err = single.Grade(nil)
	assert.Error(t, err)
	_, err = single.Grade([]string{"a", "b"})
	assert.Error(t, err)
	_, err = single.Grade([]string{"z"})
	assert.Error(t, err)

	multi, err := ParseQuiz(multipleQuiz)
	require.NoError(t, err)
	res, err = multi.Grade([]string{"b", "a", "a"})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	res, err = multi.Grade([]string{"a"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, []string{"b"}, res.Missed)
	assert.Empty(t, res.Wrong)
}

const lesson = "# What is machine learning\n\n" +
	"Some intro text.\n\n" +
	"```go\nfmt.Println(\"plain code\")\n```\n\n" +
	"```quiz\n" + `{"question": "q", "options": [{"id": "a", "text": "x", "isCorrect": true}, {"id": "b", "text": "y"}]}` + "\n```\n\n" +
	"```mermaid\ngraph LR\n  A --> B\n```\n\n" +
	"```ml-training-flow\n```\n\n" +
	"```kmeans\n```\n\n" +
	"```quiz-json\n{broken\n```\n\n" +
	"| a | b |\n|---|---|\n| 1 | 2 |\n"

func TestWidgets(t *testing.T) {
	known := func(name string) bool { return name == "kmeans" || name == "ml-training-flow" }
	ws := Widgets([]byte(lesson), known)
	require.Len(t, ws, 5)

	assert.Equal(t, WidgetQuiz, ws[0].Kind)
	assert.NoError(t, ws[0].Err)
	require.NotNil(t, ws[0].Quiz)
	assert.Equal(t, "q", ws[0].Quiz.Question)
	assert.Equal(t, 10, ws[0].Line)

	assert.Equal(t, WidgetDiagram, ws[1].Kind)
	assert.Contains(t, ws[1].Body, "A --> B")
	assert.Equal(t, WidgetTrainingFlow, ws[2].Kind)
	assert.Equal(t, WidgetVisualization, ws[3].Kind)
	assert.Equal(t, "kmeans", ws[3].Language)

	assert.Equal(t, WidgetQuiz, ws[4].Kind)
	assert.Nil(t, ws[4].Quiz)
	var qe *QuizError
	require.ErrorAs(t, ws[4].Err, &qe)
	assert.Equal(t, "{broken\n", qe.Raw)

	assert.Len(t, Widgets([]byte(lesson), nil), 4)
}

func TestTitleAndHTML(t *testing.T) {
	assert.Equal(t, "What is machine learning", Title([]byte(lesson)))
	assert.Empty(t, Title([]byte("no heading")))

	html, err := RenderHTML([]byte(lesson))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>What is machine learning</h1>")
	assert.Contains(t, string(html), "<table>")
}

func newFetcher(t *testing.T, base string, retries int) *Fetcher {
	t.Helper()
	f, err := NewFetcher(config.ContentConfig{BaseURL: base, Retries: retries, CacheTTL: time.Minute}, nil)
	require.NoError(t, err)
	f.InitialInterval = time.Millisecond
	t.Cleanup(f.Close)
	return f
}

func TestFetchRetriesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("# lesson " + r.URL.Path))
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL, 3)
	body, err := f.Fetch(context.Background(), "/content/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# lesson /content/a.md", string(body))
	assert.EqualValues(t, 3, hits.Load())

	body, err = f.Fetch(context.Background(), "/content/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# lesson /content/a.md", string(body))
	assert.EqualValues(t, 3, hits.Load(), "second fetch served from cache")
}

func TestFetchGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL, 2)
	_, err := f.Fetch(context.Background(), "/x.md")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
	assert.True(t, fe.Retryable())
	assert.EqualValues(t, 3, hits.Load())
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL, 3)
	_, err := f.Fetch(context.Background(), "/missing.md")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.False(t, fe.Retryable())
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRelativeWithoutBase(t *testing.T) {
	f := newFetcher(t, "", 0)
	_, err := f.Fetch(context.Background(), "/content/a.md")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no base url"))
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFetcher(t, srv.URL, 5)
	_, err := f.Fetch(ctx, "/a.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLesson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# " + r.URL.Path))
	}))
	defer srv.Close()
	f := newFetcher(t, srv.URL, 0)

	c, body, err := f.Lesson(context.Background(), "lesson-01")
	require.NoError(t, err)
	assert.Equal(t, "lesson-01", c.ID)
	assert.Equal(t, "# "+c.FileURL, string(body))

	_, _, err = f.Lesson(context.Background(), "lesson-07")
	assert.ErrorIs(t, err, ErrNotAvailable)
	_, _, err = f.Lesson(context.Background(), "lesson-99")
	assert.ErrorIs(t, err, ErrUnknownLesson)
}
