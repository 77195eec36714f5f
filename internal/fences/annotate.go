package fences

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ppiankov/mdpolish/internal/site"
)

// Change is one rewritten opening fence
type Change struct {
	Line int    `json:"line"`
	From string `json:"from"`
	To   string `json:"to"`
}

// FileResult summarizes the fences of one Markdown file
type FileResult struct {
	Path    string   `json:"path"`
	Changes []Change `json:"changes,omitempty"`
	Skipped int      `json:"skipped"`
}

type edit struct {
	start, stop int
	info        string
}

// Annotate rewrites the info strings of fenced code blocks in src. Only
// opening fences are touched; block bodies and closing fences are copied
// byte for byte.
func Annotate(src []byte) ([]byte, []Change, int) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var edits []edit
	var changes []Change
	skipped := 0

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		start, stop, found := infoSpan(block, src)
		if !found {
			skipped++
			return ast.WalkSkipChildren, nil
		}
		info := string(src[start:stop])

		next, change := Decide(info, blockBody(block, src))
		if !change {
			skipped++
			return ast.WalkSkipChildren, nil
		}

		edits = append(edits, edit{start: start, stop: stop, info: next})
		changes = append(changes, Change{Line: lineOf(src, start), From: info, To: next})
		return ast.WalkSkipChildren, nil
	})

	if len(edits) == 0 {
		return src, nil, skipped
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := append([]byte(nil), src...)
	for _, e := range edits {
		out = append(out[:e.start], append([]byte(e.info), out[e.stop:]...)...)
	}
	return out, changes, skipped
}

// infoSpan locates the info string of the opening fence. A fence without
// info yields an empty span right after the fence characters; an empty
// block without info cannot be located.
func infoSpan(block *ast.FencedCodeBlock, src []byte) (int, int, bool) {
	if block.Info != nil {
		seg := block.Info.Segment
		return seg.Start, seg.Stop, true
	}
	if block.Lines().Len() == 0 {
		return 0, 0, false
	}

	bodyStart := block.Lines().At(0).Start
	lineEnd := bytes.LastIndexByte(src[:bodyStart], '\n')
	if lineEnd < 0 {
		return 0, 0, false
	}
	lineStart := bytes.LastIndexByte(src[:lineEnd], '\n') + 1
	line := src[lineStart:lineEnd]

	i := bytes.IndexAny(line, "`~")
	if i < 0 {
		return 0, 0, false
	}
	fence := line[i]
	for i < len(line) && line[i] == fence {
		i++
	}
	pos := lineStart + i
	return pos, pos, true
}

func blockBody(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func lineOf(src []byte, offset int) int {
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// Run annotates every Markdown file under root. With dryRun the files are
// left unchanged.
func Run(ctx context.Context, root string, dryRun bool, logger *slog.Logger) ([]FileResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pages, err := site.Walk(site.WalkConfig{Root: root, Include: []string{"**/*.md"}})
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := annotateFile(page.Path, dryRun)
		if err != nil {
			return results, err
		}
		if len(res.Changes) > 0 {
			logger.Debug("annotated fences", "file", page.RelPath, "changes", len(res.Changes), "dry_run", dryRun)
		}
		results = append(results, res)
	}
	return results, nil
}

func annotateFile(path string, dryRun bool) (FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("read markdown: %w", err)
	}

	out, changes, skipped := Annotate(src)
	res := FileResult{Path: path, Changes: changes, Skipped: skipped}
	if dryRun || len(changes) == 0 {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat markdown: %w", err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("write markdown: %w", err)
	}
	return res, nil
}
