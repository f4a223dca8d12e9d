package content

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

type WidgetKind string

const (
	WidgetQuiz          WidgetKind = "quiz"
	WidgetTrainingFlow  WidgetKind = "training-flow"
	WidgetDiagram       WidgetKind = "diagram"
	WidgetVisualization WidgetKind = "visualization"
)

const trainingFlowLang = "ml-training-flow"

// Widget is a fenced code block that stands for something interactive.
type Widget struct {
	Kind     WidgetKind
	Language string
	Body     string
	// Line is the 1-based line of the block's first content line.
	Line int
	// Quiz is set for valid quiz blocks; Err holds the *QuizError otherwise.
	Quiz *Quiz
	Err  error
}

// Widgets walks the fenced code blocks of a lesson in document order.
// isAlgorithm recognises visualization ids; it may be nil. Plain code
// blocks are skipped.
func Widgets(source []byte, isAlgorithm func(string) bool) []Widget {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	var out []Widget
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindFencedCodeBlock {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(block.Language(source))
		w := Widget{Language: lang, Body: blockText(block, source), Line: blockLine(block, source)}
		switch {
		case lang == "quiz" || lang == "quiz-json":
			w.Kind = WidgetQuiz
			w.Quiz, w.Err = ParseQuiz(w.Body)
		case lang == trainingFlowLang:
			w.Kind = WidgetTrainingFlow
		case lang == "mermaid":
			w.Kind = WidgetDiagram
		case isAlgorithm != nil && isAlgorithm(lang):
			w.Kind = WidgetVisualization
		default:
			return ast.WalkSkipChildren, nil
		}
		out = append(out, w)
		return ast.WalkSkipChildren, nil
	})
	return out
}

func blockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func blockLine(block *ast.FencedCodeBlock, source []byte) int {
	lines := block.Lines()
	if lines.Len() == 0 {
		return 0
	}
	return bytes.Count(source[:lines.At(0).Start], []byte("\n")) + 1
}

// Title is the text of the first level-one heading, or empty.
func Title(source []byte) string {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			continue
		}
		var sb strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return strings.TrimSpace(sb.String())
	}
	return ""
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a lesson to HTML with GitHub flavoured tables.
func RenderHTML(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(source, &buf); err != nil {
		return nil, errors.Wrap(err, "render markdown")
	}
	return buf.Bytes(), nil
}
